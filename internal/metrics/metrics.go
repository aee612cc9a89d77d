// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VersionSaves counts saveVersion outcomes, labeled "created" or
	// "unchanged".
	VersionSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptforge",
		Name:      "version_saves_total",
		Help:      "Prompt version save operations by outcome.",
	}, []string{"outcome"})

	// CodecFailures counts decode failures of stored connection configs.
	CodecFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "promptforge",
		Name:      "config_decode_failures_total",
		Help:      "Encrypted connection config decode failures.",
	})

	// LLMRequests counts prompt runs by provider and result.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptforge",
		Name:      "llm_requests_total",
		Help:      "LLM completions issued by prompt runs.",
	}, []string{"provider", "status"})

	// HTTPDuration observes request latency by route and method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "promptforge",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
