package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncTicket(t *testing.T) {
	before := testutil.ToFloat64(ticketsProcessedTotal.WithLabelValues("failed", "fetch"))
	IncTicket("Failed", " fetch ")
	after := testutil.ToFloat64(ticketsProcessedTotal.WithLabelValues("failed", "fetch"))
	if after-before != 1 {
		t.Fatalf("want +1, got %v", after-before)
	}
}

func TestObserveBatchRun(t *testing.T) {
	ObserveBatchRun(5, 4, 0, 1, 90*time.Second, false)
	if got := testutil.ToFloat64(batchTickets.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed gauge = %v", got)
	}
	if got := testutil.ToFloat64(batchDurationSeconds); got != 90 {
		t.Errorf("duration gauge = %v", got)
	}
}

func TestObserveAICall(t *testing.T) {
	before := testutil.ToFloat64(aiTokensIn.WithLabelValues("bedrock", "claude"))
	ObserveAICall("Bedrock", "Claude", 120, 30, 1500, true)
	if got := testutil.ToFloat64(aiTokensIn.WithLabelValues("bedrock", "claude")) - before; got != 120 {
		t.Errorf("tokens in delta = %v", got)
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}

func TestMustRegisterOn_PrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegisterOn(reg)
	SetDBPoolStats(10, 7, 3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "ingest_archive_index_connections" {
			found = true
			if len(f.GetMetric()) != 3 {
				t.Fatalf("want 3 states, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Fatal("pool gauge not registered")
	}
}
