package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGet_RegistersOnce(t *testing.T) {
	a := Get()
	b := Get()
	if a != b {
		t.Fatal("Get() should return the same collectors")
	}

	before := testutil.ToFloat64(a.TaskToggles.WithLabelValues("daily"))
	b.TaskToggles.WithLabelValues("daily").Inc()
	if got := testutil.ToFloat64(a.TaskToggles.WithLabelValues("daily")); got != before+1 {
		t.Errorf("task toggles = %v, want %v", got, before+1)
	}
}
