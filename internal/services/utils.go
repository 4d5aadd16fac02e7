package services

import (
	"time"

	"tmrelay/internal/metrics"
	"tmrelay/internal/upstream"
)

func observeUpstream(provider string, start time.Time, kind upstream.Kind) {
	metrics.UpstreamDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequests.WithLabelValues(provider, kind.String()).Inc()
}

func recordRelay(outcome string) {
	metrics.RelayRequests.WithLabelValues(outcome).Inc()
}
