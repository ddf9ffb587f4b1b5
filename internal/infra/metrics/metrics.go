// File: internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Push sends every registered collector to a Pushgateway under job.
// Short-lived commands use it since nothing scrapes them.
func Push(ctx context.Context, url, job string) error {
	return push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}
