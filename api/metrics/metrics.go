// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registerer is an interface for registering prometheus metrics
type Registerer interface {
	prometheus.Registerer
}

// Registry is an interface for prometheus registry
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry creates a new prometheus registry
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// MultiGatherer is a prometheus gatherer that can gather metrics from multiple sources
type MultiGatherer interface {
	prometheus.Gatherer
	
	// Register adds a new gatherer to this multi-gatherer
	Register(string, prometheus.Gatherer) error
}

// multiGatherer implements MultiGatherer
type multiGatherer struct {
	gatherers map[string]prometheus.Gatherer
}

// NewMultiGatherer creates a new multi-gatherer
func NewMultiGatherer() MultiGatherer {
	return &multiGatherer{
		gatherers: make(map[string]prometheus.Gatherer),
	}
}

// Register adds a new gatherer
func (mg *multiGatherer) Register(name string, gatherer prometheus.Gatherer) error {
	mg.gatherers[name] = gatherer
	return nil
}

// Gather implements prometheus.Gatherer
func (mg *multiGatherer) Gather() ([]*dto.MetricFamily, error) {
	var result []*dto.MetricFamily
	for _, g := range mg.gatherers {
		metrics, err := g.Gather()
		if err != nil {
			return nil, err
		}
		result = append(result, metrics...)
	}
	return result, nil
}

// HuntMetrics counts monitor-hunt outcomes: how many hunts were
// started, how many hunts eventually succeeded, and how many candidates
// were tried and failed along the way (spec §4.5 "parallel hunt across
// up to N monitors").
type HuntMetrics interface {
	// Attempts tracks the number of hunts started.
	Attempts() prometheus.Counter

	// Successes tracks hunts that landed an authenticated session.
	Successes() prometheus.Counter

	// CandidateFailures tracks individual monitor dials that failed
	// within a hunt (a hunt can still succeed if another candidate wins).
	CandidateFailures() prometheus.Counter
}

// NewHuntMetrics registers and returns a HuntMetrics under namespace.
func NewHuntMetrics(namespace string, registerer prometheus.Registerer) (HuntMetrics, error) {
	m := &huntMetrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mon_hunt_attempts_total",
			Help:      "Number of monitor hunts started",
		}),
		successes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mon_hunt_successes_total",
			Help:      "Number of monitor hunts that landed a session",
		}),
		candidateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mon_hunt_candidate_failures_total",
			Help:      "Number of individual monitor candidates that failed to dial or authenticate",
		}),
	}

	if err := registerer.Register(m.attempts); err != nil {
		return nil, err
	}
	if err := registerer.Register(m.successes); err != nil {
		return nil, err
	}
	if err := registerer.Register(m.candidateFailures); err != nil {
		return nil, err
	}

	return m, nil
}

type huntMetrics struct {
	attempts          prometheus.Counter
	successes         prometheus.Counter
	candidateFailures prometheus.Counter
}

func (m *huntMetrics) Attempts() prometheus.Counter          { return m.attempts }
func (m *huntMetrics) Successes() prometheus.Counter         { return m.successes }
func (m *huntMetrics) CandidateFailures() prometheus.Counter { return m.candidateFailures }