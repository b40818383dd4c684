// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package metrics holds the prometheus collectors of the transfer service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "globus_transfer"

	// ResultSubmitted labels an accepted transfer task
	ResultSubmitted = "submitted"
	// ResultFailed labels a refused transfer task
	ResultFailed = "failed"
)

// Metrics groups the service collectors and the registry serving them
type Metrics struct {
	reg                *prometheus.Registry
	transferTasks      *prometheus.CounterVec
	credentialOutcomes *prometheus.CounterVec
	resolutionFailures prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		transferTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Number of per-endpoint transfer tasks by submission result",
			},
			[]string{"result"},
		),
		credentialOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_outcomes_total",
				Help:      "Number of credential broker outcomes by terminal state",
			},
			[]string{"state"},
		),
		resolutionFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolution_failures_total",
				Help:      "Number of transfers aborted because a search result could not be resolved",
			},
		),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transferTasks,
		m.credentialOutcomes,
		m.resolutionFailures,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// TaskSubmitted counts one transfer task with the given result label
func (m *Metrics) TaskSubmitted(result string) {
	if m == nil {
		return
	}
	m.transferTasks.WithLabelValues(result).Inc()
}

// CredentialOutcome counts one broker outcome
func (m *Metrics) CredentialOutcome(state string) {
	if m == nil {
		return
	}
	m.credentialOutcomes.WithLabelValues(state).Inc()
}

// ResolutionFailed counts one aborted resolution
func (m *Metrics) ResolutionFailed() {
	if m == nil {
		return
	}
	m.resolutionFailures.Inc()
}
