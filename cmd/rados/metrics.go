// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tchaikov/ceph-sub002/api/metrics"
)

// metricsSet holds the per-component registries a session's monitor
// and object clients register their counters into, combined under one
// /metrics endpoint when --metrics-addr is set.
type metricsSet struct {
	monRegistry metrics.Registry
	objRegistry metrics.Registry
}

func newMetricsSet() *metricsSet {
	return &metricsSet{
		monRegistry: metrics.NewRegistry(),
		objRegistry: metrics.NewRegistry(),
	}
}

// serve starts the combined gatherer on addr and returns a shutdown
// func; a one-shot CLI invocation rarely lives long enough for anyone
// to scrape it, but --metrics-addr exists for callers that wrap rados
// in a longer-running wrapper process.
func (s *metricsSet) serve(addr string) (shutdown func(), err error) {
	gatherer := metrics.NewMultiGatherer()
	if err := gatherer.Register("monclient", s.monRegistry); err != nil {
		return nil, err
	}
	if err := gatherer.Register("objecter", s.objRegistry); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go srv.ListenAndServe()
	return func() { srv.Close() }, nil
}
