package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCheckoutStep(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry(), "test")
	m.CheckoutStep("initiate", "ok")
	m.CheckoutStep("initiate", "ok")
	m.CheckoutStep("confirm", "signature_invalid")

	if got := testutil.ToFloat64(m.Checkout.WithLabelValues("initiate", "ok")); got != 2 {
		t.Fatalf("initiate ok=%v", got)
	}
	var nilMetrics *ServerMetrics
	nilMetrics.CheckoutStep("x", "y")
}
