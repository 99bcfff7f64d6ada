package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegisterOnPrivateRegistry(t *testing.T) {
	a := New()
	b := New()

	a.RunsTotal.Inc()
	a.MalformedRecords.Add(3)

	if got := testutil.ToFloat64(a.RunsTotal); got != 1 {
		t.Fatalf("expected 1 run, got %v", got)
	}
	if got := testutil.ToFloat64(a.MalformedRecords); got != 3 {
		t.Fatalf("expected 3 malformed records, got %v", got)
	}
	// Registries are independent: the second instance stays at zero.
	if got := testutil.ToFloat64(b.RunsTotal); got != 0 {
		t.Fatalf("expected independent registry, got %v", got)
	}

	families, err := a.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metric families")
	}
}
