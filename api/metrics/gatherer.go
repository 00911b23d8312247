// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewPrefixGatherer returns a bare, empty registry suitable for
// registering under a name in a MultiGatherer. No prefix or namespace
// is applied to its metrics: MultiGatherer concatenates every
// registered gatherer's families as they are.
func NewPrefixGatherer() prometheus.Gatherer {
	return prometheus.NewRegistry()
}