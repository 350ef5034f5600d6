package commission

import (
	"testing"

	"github.com/synergy-flow/internal/constants"

	"github.com/shopspring/decimal"
)

func TestCartTotalsWorkedExample(t *testing.T) {
	policy := DefaultPolicy()
	lines := []Line{{Price: decimal.NewFromInt(250), Quantity: 4}}
	coupon := &Coupon{Code: "TEN", Type: constants.CouponTypePercent, Value: dec(t, "0.10")}

	totals := policy.CartTotals(lines, Builder, coupon)
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"subtotal", totals.Subtotal, "1000"},
		{"member_discount", totals.MemberDiscount, "200"},
		{"after_member", totals.AfterMember, "800"},
		{"coupon_discount", totals.CouponDiscount, "80"},
		{"after_coupon", totals.AfterCoupon, "720"},
		{"vat", totals.VAT, "50.4"},
		{"total", totals.Total, "770.4"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(t, c.want)) {
			t.Fatalf("%s want %s, got %s", c.name, c.want, c.got)
		}
	}
	if totals.CouponCode != "TEN" {
		t.Fatalf("unexpected coupon code: %s", totals.CouponCode)
	}
	if !totals.SalesVolume().Equal(decimal.NewFromInt(720)) {
		t.Fatalf("sales volume should be after-coupon amount, got %s", totals.SalesVolume())
	}
}

func TestFixedCouponFloorsAtZero(t *testing.T) {
	policy := DefaultPolicy()
	lines := []Line{{Price: decimal.NewFromInt(30), Quantity: 1}}
	coupon := &Coupon{Code: "BIG", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(100)}

	totals := policy.CartTotals(lines, Starter, coupon)
	if !totals.CouponDiscount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("fixed coupon should be capped at after-member amount, got %s", totals.CouponDiscount)
	}
	if !totals.Total.IsZero() || !totals.VAT.IsZero() {
		t.Fatalf("expected zero total, got total=%s vat=%s", totals.Total, totals.VAT)
	}
}

func TestCouponRemovalRestoresTotals(t *testing.T) {
	policy := DefaultPolicy()
	lines := []Line{
		{Price: dec(t, "19.99"), Quantity: 3},
		{Price: dec(t, "5.05"), Quantity: 7},
	}
	before := policy.CartTotals(lines, Marketer, nil)
	withCoupon := policy.CartTotals(lines, Marketer, &Coupon{Code: "X", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(5)})
	if withCoupon.Total.Equal(before.Total) {
		t.Fatalf("coupon should change totals")
	}
	after := policy.CartTotals(lines, Marketer, nil)
	if !after.Total.Equal(before.Total) || !after.AfterCoupon.Equal(before.AfterCoupon) || after.CouponCode != "" {
		t.Fatalf("removal should restore totals: before=%+v after=%+v", before, after)
	}
}

func TestTotalsRoundedHalfAwayFromZero(t *testing.T) {
	policy := DefaultPolicy()
	lines := []Line{{Price: dec(t, "0.05"), Quantity: 1}}
	totals := policy.CartTotals(lines, Starter, nil)
	// 0.05 × 0.07 = 0.0035 -> 0.00；总额 0.0535 -> 0.05
	rounded := totals.Rounded()
	if !rounded.VAT.Equal(dec(t, "0")) || !rounded.Total.Equal(dec(t, "0.05")) {
		t.Fatalf("unexpected rounding: %+v", rounded)
	}
	if !Round(dec(t, "2.345")).Equal(dec(t, "2.35")) || !Round(dec(t, "-2.345")).Equal(dec(t, "-2.35")) {
		t.Fatalf("round should be half away from zero")
	}
}

func TestCouponDiscountIgnoresUnknownType(t *testing.T) {
	got := CouponDiscount(decimal.NewFromInt(100), &Coupon{Type: "bogo", Value: decimal.NewFromInt(10)})
	if !got.IsZero() {
		t.Fatalf("unknown coupon type should not discount, got %s", got)
	}
}
