package service

import (
	"errors"
	"testing"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"

	"github.com/shopspring/decimal"
)

func TestCartCouponApplyAndRemoveRoundTrip(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer := env.createUser(t, "sierra", constants.TierMarketer, 3000)
	product := env.createProduct(t, "SF-010", "1000")
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 2); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	active := true
	if _, err := env.coupons.Create(Actor{UserID: 1}, CouponInput{
		Code: "save10", Type: constants.CouponTypePercent, Value: decimal.RequireFromString("0.10"), IsActive: &active,
	}); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	before, err := env.cart.GetCart(buyer.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	assertDecimal(t, "subtotal", before.Totals.Subtotal, "2000")
	assertDecimal(t, "member discount", before.Totals.MemberDiscount, "200")
	assertDecimal(t, "total", before.Totals.Total, "1926")

	applied, err := env.cart.ApplyCoupon(buyer.ID, " Save10 ")
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if applied.CouponCode != "SAVE10" {
		t.Fatalf("coupon code should be normalized, got %q", applied.CouponCode)
	}
	assertDecimal(t, "coupon discount", applied.Totals.CouponDiscount, "180")
	assertDecimal(t, "after coupon", applied.Totals.AfterCoupon, "1620")
	assertDecimal(t, "vat", applied.Totals.VAT, "113.4")
	assertDecimal(t, "total with coupon", applied.Totals.Total, "1733.4")

	removed, err := env.cart.RemoveCoupon(buyer.ID)
	if err != nil {
		t.Fatalf("remove coupon failed: %v", err)
	}
	if removed.CouponCode != "" || !removed.Totals.CouponDiscount.IsZero() {
		t.Fatalf("coupon should be cleared: %+v", removed)
	}
	if !removed.Totals.Total.Equal(before.Totals.Total) || !removed.Totals.AfterCoupon.Equal(before.Totals.AfterCoupon) {
		t.Fatalf("removing coupon should restore totals: before=%+v after=%+v", before.Totals, removed.Totals)
	}
}

func TestApplyCouponValidation(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer := env.createUser(t, "tango", constants.TierStarter, 0)
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	rows := []models.Coupon{
		{Code: "OFF", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(50), IsActive: false},
		{Code: "SOON", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(50), IsActive: true, StartsAt: &tomorrow},
		{Code: "OLD", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(50), IsActive: true, StartsAt: &past, EndsAt: &yesterday},
		{Code: "USED", Type: constants.CouponTypeFixed, Value: decimal.NewFromInt(50), IsActive: true, UsageLimit: 1, UsedCount: 1},
	}
	for i := range rows {
		if err := env.db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("create coupon failed: %v", err)
		}
	}
	// gorm 对 bool 零值使用列默认值，这里显式停用
	env.db.Model(&models.Coupon{}).Where("code = ?", "OFF").Update("is_active", false)

	cases := []struct {
		code string
		want error
	}{
		{"", ErrInvalidCoupon},
		{"MISSING", ErrCouponNotFound},
		{"off", ErrCouponInactive},
		{"SOON", ErrCouponNotStarted},
		{"OLD", ErrCouponExpired},
		{"USED", ErrCouponUsageLimit},
	}
	for _, tc := range cases {
		if _, err := env.cart.ApplyCoupon(buyer.ID, tc.code); !errors.Is(err, tc.want) {
			t.Fatalf("coupon %q: want %v got %v", tc.code, tc.want, err)
		}
		if KindOf(tc.want) != KindInvalidCoupon {
			t.Fatalf("coupon errors should share the invalid_coupon kind")
		}
	}
}

func TestCartItemValidation(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer := env.createUser(t, "uniform", constants.TierStarter, 0)
	product := env.createProduct(t, "SF-011", "10")
	hidden := env.createProduct(t, "SF-012", "10")
	env.db.Model(hidden).Update("is_active", false)

	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, maxCartItemQuantity+1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := env.cart.UpsertItem(buyer.ID, 9999, 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := env.cart.UpsertItem(buyer.ID, hidden.ID, 1); !errors.Is(err, ErrProductInactive) {
		t.Fatalf("expected ErrProductInactive, got %v", err)
	}

	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	view, err := env.cart.UpsertItem(buyer.ID, product.ID, 5)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 5 {
		t.Fatalf("upsert should replace quantity: %+v", view.Items)
	}
	assertDecimal(t, "subtotal", view.Totals.Subtotal, "50")

	view, err = env.cart.RemoveItem(buyer.ID, product.ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(view.Items) != 0 || !view.Totals.Total.IsZero() {
		t.Fatalf("cart should be empty: %+v", view)
	}
}

func TestCouponAdminRejectsDuplicatesAndBadValues(t *testing.T) {
	env := newAffiliateTestEnv(t)
	actor := Actor{UserID: 1}
	created, err := env.coupons.Create(actor, CouponInput{Code: "flat100", Type: "FIXED", Value: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Code != "FLAT100" || created.Type != constants.CouponTypeFixed || !created.IsActive {
		t.Fatalf("unexpected coupon: %+v", created)
	}
	if _, err := env.coupons.Create(actor, CouponInput{Code: "FLAT100", Type: "fixed", Value: decimal.NewFromInt(5)}); !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("expected ErrCouponCodeExists, got %v", err)
	}
	if _, err := env.coupons.Create(actor, CouponInput{Code: "HALF", Type: "percent", Value: decimal.NewFromInt(50)}); !errors.Is(err, ErrInvalidCoupon) {
		t.Fatalf("percent above 1 should be rejected, got %v", err)
	}
	if _, err := env.coupons.Create(actor, CouponInput{Code: "FREE", Type: "fixed", Value: decimal.Zero}); !errors.Is(err, ErrInvalidCoupon) {
		t.Fatalf("zero value should be rejected, got %v", err)
	}

	disabled := false
	updated, err := env.coupons.Update(actor, created.ID, CouponInput{Code: "FLAT100", Type: "fixed", Value: decimal.NewFromInt(80), IsActive: &disabled})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.IsActive || !updated.Value.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("update not applied: %+v", updated)
	}
	if err := env.coupons.Delete(actor, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := env.coupons.Get(created.ID); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestCartTotalsIgnoreCouponThatLapsedAfterApply(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer := env.createUser(t, "uniform", constants.TierStarter, 0)
	product := env.createProduct(t, "SF-011", "1000")
	if _, err := env.cart.UpsertItem(buyer.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	active := true
	if _, err := env.coupons.Create(Actor{UserID: 1}, CouponInput{
		Code: "LAPSE10", Type: constants.CouponTypePercent, Value: decimal.RequireFromString("0.10"), IsActive: &active,
	}); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	applied, err := env.cart.ApplyCoupon(buyer.ID, "LAPSE10")
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	assertDecimal(t, "coupon discount", applied.Totals.CouponDiscount, "100")

	ended := time.Now().Add(-time.Hour)
	if err := env.db.Model(&models.Coupon{}).Where("code = ?", "LAPSE10").Update("ends_at", ended).Error; err != nil {
		t.Fatalf("expire coupon failed: %v", err)
	}

	totals, err := env.cart.GetCartTotals(buyer.ID)
	if err != nil {
		t.Fatalf("get totals failed: %v", err)
	}
	if !totals.CouponDiscount.IsZero() || totals.CouponCode != "" {
		t.Fatalf("expired coupon must not discount: %+v", totals)
	}
	assertDecimal(t, "total", totals.Total, "1070")

	if _, err := env.cart.LoadValidCoupon("LAPSE10", time.Now()); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("want ErrCouponExpired, got %v", err)
	}
}
