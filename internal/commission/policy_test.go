package commission

import (
	"testing"

	"github.com/synergy-flow/internal/constants"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal %q failed: %v", raw, err)
	}
	return value
}

func TestResolveTierThresholds(t *testing.T) {
	policy := DefaultPolicy()
	cases := []struct {
		sales string
		want  Tier
	}{
		{"0", Starter},
		{"-10", Starter},
		{"2999.99", Starter},
		{"3000", Marketer},
		{"9999.99", Marketer},
		{"10000", Builder},
		{"49999.99", Builder},
		{"50000", Executive},
		{"1000000", Executive},
	}
	for _, tc := range cases {
		got := policy.ResolveTier(dec(t, tc.sales))
		if got != tc.want {
			t.Fatalf("ResolveTier(%s) want %s, got %s", tc.sales, tc.want, got)
		}
	}
}

func TestResolveTierMonotonic(t *testing.T) {
	policy := DefaultPolicy()
	prev := policy.ResolveTier(decimal.Zero)
	for sales := int64(0); sales <= 60000; sales += 250 {
		got := policy.ResolveTier(decimal.NewFromInt(sales))
		if got.Rank() < prev.Rank() {
			t.Fatalf("tier regressed at %d: %s -> %s", sales, prev, got)
		}
		if again := policy.ResolveTier(decimal.NewFromInt(sales)); again != got {
			t.Fatalf("resolve not idempotent at %d", sales)
		}
		prev = got
	}
}

func TestOverrideTableKeepsSameTierCap(t *testing.T) {
	policy := DefaultPolicy()
	sameTier := policy.OverrideRate(Executive, Executive)
	crossTier := policy.OverrideRate(Builder, Executive)
	if !sameTier.LessThan(crossTier) {
		t.Fatalf("executive→executive override should be lower than builder→executive, got %s vs %s", sameTier, crossTier)
	}
	if !policy.OverrideRate(Starter, Starter).IsZero() {
		t.Fatalf("starter recipients should earn no override")
	}
}

func TestRatesFollowTierProgression(t *testing.T) {
	policy := DefaultPolicy()
	wantDiscount := []string{"0", "0.1", "0.2", "0.3"}
	for i, tier := range Tiers() {
		if !policy.DiscountRate(tier).Equal(dec(t, wantDiscount[i])) {
			t.Fatalf("discount rate of %s want %s, got %s", tier, wantDiscount[i], policy.DiscountRate(tier))
		}
		if i > 0 && policy.DirectRate(tier).LessThan(policy.DirectRate(Tiers()[i-1])) {
			t.Fatalf("direct rate decreased at %s", tier)
		}
	}
	if got := policy.MemberDiscount(Builder, decimal.NewFromInt(1000)); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("builder member discount want 200, got %s", got)
	}
}

func TestNewPolicyRejectsInvalidTables(t *testing.T) {
	rules := DefaultTierRules()
	rules[2].Threshold = rules[1].Threshold
	if _, err := NewPolicy(rules, DefaultOverrides(), defaultVATRate); err == nil {
		t.Fatalf("expected error for non increasing thresholds")
	}

	rules = DefaultTierRules()
	rules[0].Threshold = decimal.NewFromInt(1)
	if _, err := NewPolicy(rules, DefaultOverrides(), defaultVATRate); err == nil {
		t.Fatalf("expected error for non zero starter threshold")
	}

	overrides := DefaultOverrides()
	overrides[Starter][Executive] = decimal.RequireFromString("0.01")
	if _, err := NewPolicy(DefaultTierRules(), overrides, defaultVATRate); err == nil {
		t.Fatalf("expected error for decreasing override row")
	}

	if _, err := NewPolicy(DefaultTierRules(), DefaultOverrides(), decimal.NewFromInt(2)); err == nil {
		t.Fatalf("expected error for vat rate above 1")
	}
}

func TestNewPolicyFromSettings(t *testing.T) {
	policy, err := NewPolicyFromSettings([]TierSetting{
		{Name: "Starter", Threshold: "0", DirectRate: "0.05", DiscountRate: "0"},
		{Name: "marketer", Threshold: "2000", DirectRate: "0.08", DiscountRate: "0.05"},
		{Name: "builder", Threshold: "8000", DirectRate: "0.12", DiscountRate: "0.15"},
		{Name: "executive", Threshold: "40000", DirectRate: "0.18", DiscountRate: "0.25"},
	}, map[string]map[string]string{
		"starter": {"marketer": "0.01", "builder": "0.02", "executive": "0.03"},
	}, "0.1")
	if err != nil {
		t.Fatalf("build policy failed: %v", err)
	}
	if got := policy.ResolveTier(decimal.NewFromInt(2000)); got != Marketer {
		t.Fatalf("want marketer at configured threshold, got %s", got)
	}
	if !policy.OverrideRate(Starter, Builder).Equal(dec(t, "0.02")) {
		t.Fatalf("unexpected override rate: %s", policy.OverrideRate(Starter, Builder))
	}
	if !policy.OverrideRate(Executive, Executive).IsZero() {
		t.Fatalf("missing override rows should be zero")
	}
	if !policy.VATRate().Equal(dec(t, "0.1")) {
		t.Fatalf("unexpected vat rate: %s", policy.VATRate())
	}

	if _, err := NewPolicyFromSettings([]TierSetting{{Name: "gold", Threshold: "0", DirectRate: "0", DiscountRate: "0"}}, nil, ""); err == nil {
		t.Fatalf("expected unknown tier error")
	}
}

func TestDistributeThreeLevelChain(t *testing.T) {
	policy := DefaultPolicy()
	chain := []ChainMember{
		{UserID: 2, Tier: Marketer},
		{UserID: 3, Tier: Builder},
		{UserID: 4, Tier: Executive},
	}
	grants := policy.Distribute(Starter, chain, decimal.NewFromInt(1000), 0)
	if len(grants) != 3 {
		t.Fatalf("want 3 grants, got %d", len(grants))
	}
	want := []struct {
		userID    uint
		grantType string
		amount    string
	}{
		{2, constants.CommissionTypeDirect, "100"},
		{3, constants.CommissionTypeTeam, "40"},
		{4, constants.CommissionTypeTeam, "60"},
	}
	for i, w := range want {
		if grants[i].UserID != w.userID || grants[i].Type != w.grantType {
			t.Fatalf("grant %d unexpected: %+v", i, grants[i])
		}
		if !grants[i].Amount.Equal(dec(t, w.amount)) {
			t.Fatalf("grant %d amount want %s, got %s", i, w.amount, grants[i].Amount)
		}
	}
	if !SumGrants(grants).Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected total: %s", SumGrants(grants))
	}
}

func TestDistributeSkipsZeroAndHonorsDepth(t *testing.T) {
	policy := DefaultPolicy()
	chain := []ChainMember{
		{UserID: 2, Tier: Starter},
		{UserID: 3, Tier: Starter},
		{UserID: 4, Tier: Executive},
	}
	grants := policy.Distribute(Builder, chain, decimal.NewFromInt(500), 0)
	if len(grants) != 2 {
		t.Fatalf("want direct + executive override only, got %+v", grants)
	}
	if grants[1].UserID != 4 || grants[1].Level != 3 {
		t.Fatalf("unexpected team grant: %+v", grants[1])
	}

	limited := policy.Distribute(Builder, chain, decimal.NewFromInt(500), 2)
	if len(limited) != 1 {
		t.Fatalf("depth 2 should stop before executive, got %+v", limited)
	}
	if got := policy.Distribute(Builder, chain, decimal.Zero, 0); len(got) != 0 {
		t.Fatalf("zero volume should produce no grants")
	}
}
