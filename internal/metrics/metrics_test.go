package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResult(t *testing.T) {
	if Result(nil) != "ok" || Result(errors.New("x")) != "error" {
		t.Fatal("unexpected result labels")
	}
}

func TestGateDecisionsCounter(t *testing.T) {
	c := GateDecisionsTotal.WithLabelValues(OutcomeOnboarding)
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
