package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestAffiliateCountersAccumulate(t *testing.T) {
	m := Affiliate()
	if m != Affiliate() {
		t.Fatalf("Affiliate should return a singleton")
	}

	before := testutil.ToFloat64(m.commissionAmount.WithLabelValues("direct"))
	m.ObserveCommission("direct", decimal.RequireFromString("100.50"))
	after := testutil.ToFloat64(m.commissionAmount.WithLabelValues("direct"))
	if after-before != 100.5 {
		t.Fatalf("commission amount delta want 100.5 got %v", after-before)
	}

	failed := testutil.ToFloat64(m.checkouts.WithLabelValues("wallet", "error"))
	m.ObserveCheckout("wallet", errors.New("boom"))
	if testutil.ToFloat64(m.checkouts.WithLabelValues("wallet", "error")) != failed+1 {
		t.Fatalf("checkout error counter not incremented")
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *AffiliateMetrics
	m.ObserveCheckout("card", nil)
	m.ObserveWithdrawal("request", decimal.NewFromInt(1))
	m.SetLedgerMismatches(3)
}
