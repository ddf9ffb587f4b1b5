package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues collectors from each file's init; nothing is exported to
// Prometheus until MustRegister runs.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister publishes every queued collector on the default registry. Only
// the first call has an effect, so every entry point may call it.
func MustRegister() {
	registerOnce.Do(func() { MustRegisterOn(prometheus.DefaultRegisterer) })
}

// MustRegisterOn publishes the collectors on reg. Tests use a private registry.
func MustRegisterOn(reg prometheus.Registerer) {
	if len(pending) == 0 {
		return
	}
	reg.MustRegister(pending...)
}
