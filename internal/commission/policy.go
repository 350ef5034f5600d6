package commission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TierRule 单个等级的门槛与费率
type TierRule struct {
	Tier         Tier            `json:"tier"`
	Threshold    decimal.Decimal `json:"threshold"`
	DirectRate   decimal.Decimal `json:"direct_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
}

// TierSetting 字符串形式的等级配置（来自配置文件）
type TierSetting struct {
	Name         string
	Threshold    string
	DirectRate   string
	DiscountRate string
}

// Policy 等级、佣金与折扣规则表
// 覆盖佣金按 (下单会员等级, 上级等级) 二元组查表。
type Policy struct {
	rules     map[Tier]TierRule
	overrides map[Tier]map[Tier]decimal.Decimal
	vatRate   decimal.Decimal
}

var (
	one = decimal.NewFromInt(1)

	defaultVATRate = decimal.RequireFromString("0.07")
)

// DefaultTierRules 默认等级表
func DefaultTierRules() []TierRule {
	return []TierRule{
		{Tier: Starter, Threshold: decimal.Zero, DirectRate: decimal.RequireFromString("0.05"), DiscountRate: decimal.Zero},
		{Tier: Marketer, Threshold: decimal.NewFromInt(3000), DirectRate: decimal.RequireFromString("0.10"), DiscountRate: decimal.RequireFromString("0.10")},
		{Tier: Builder, Threshold: decimal.NewFromInt(10000), DirectRate: decimal.RequireFromString("0.15"), DiscountRate: decimal.RequireFromString("0.20")},
		{Tier: Executive, Threshold: decimal.NewFromInt(50000), DirectRate: decimal.RequireFromString("0.20"), DiscountRate: decimal.RequireFromString("0.30")},
	}
}

// DefaultOverrides 默认覆盖佣金表：外层 key 为下单会员等级，内层 key 为上级等级
// 同级覆盖刻意压低（executive→executive 远小于 executive 对 builder）。
func DefaultOverrides() map[Tier]map[Tier]decimal.Decimal {
	rate := decimal.RequireFromString
	return map[Tier]map[Tier]decimal.Decimal{
		Starter: {
			Starter: decimal.Zero, Marketer: rate("0.02"), Builder: rate("0.04"), Executive: rate("0.06"),
		},
		Marketer: {
			Starter: decimal.Zero, Marketer: rate("0.01"), Builder: rate("0.03"), Executive: rate("0.05"),
		},
		Builder: {
			Starter: decimal.Zero, Marketer: decimal.Zero, Builder: rate("0.01"), Executive: rate("0.04"),
		},
		Executive: {
			Starter: decimal.Zero, Marketer: decimal.Zero, Builder: decimal.Zero, Executive: rate("0.01"),
		},
	}
}

// DefaultPolicy 使用默认表创建规则
func DefaultPolicy() *Policy {
	policy, err := NewPolicy(DefaultTierRules(), DefaultOverrides(), defaultVATRate)
	if err != nil {
		panic(err)
	}
	return policy
}

// NewPolicy 创建并校验规则表
func NewPolicy(rules []TierRule, overrides map[Tier]map[Tier]decimal.Decimal, vatRate decimal.Decimal) (*Policy, error) {
	if len(rules) != len(orderedTiers) {
		return nil, fmt.Errorf("tier rules must cover %d tiers, got %d", len(orderedTiers), len(rules))
	}
	ruleMap := make(map[Tier]TierRule, len(rules))
	for _, rule := range rules {
		if !rule.Tier.Valid() {
			return nil, fmt.Errorf("unknown tier: %q", rule.Tier)
		}
		if _, dup := ruleMap[rule.Tier]; dup {
			return nil, fmt.Errorf("duplicate tier rule: %s", rule.Tier)
		}
		if !isRate(rule.DirectRate) || !isRate(rule.DiscountRate) {
			return nil, fmt.Errorf("tier %s rates must be within [0,1]", rule.Tier)
		}
		if rule.Threshold.IsNegative() {
			return nil, fmt.Errorf("tier %s threshold must not be negative", rule.Tier)
		}
		ruleMap[rule.Tier] = rule
	}
	if !ruleMap[Starter].Threshold.IsZero() {
		return nil, errors.New("starter threshold must be 0")
	}
	for i := 1; i < len(orderedTiers); i++ {
		prev := ruleMap[orderedTiers[i-1]]
		curr := ruleMap[orderedTiers[i]]
		if !curr.Threshold.GreaterThan(prev.Threshold) {
			return nil, fmt.Errorf("threshold of %s must be greater than %s", curr.Tier, prev.Tier)
		}
		if curr.DirectRate.LessThan(prev.DirectRate) {
			return nil, fmt.Errorf("direct rate of %s must not be lower than %s", curr.Tier, prev.Tier)
		}
		if curr.DiscountRate.LessThan(prev.DiscountRate) {
			return nil, fmt.Errorf("discount rate of %s must not be lower than %s", curr.Tier, prev.Tier)
		}
	}

	table := make(map[Tier]map[Tier]decimal.Decimal, len(orderedTiers))
	for _, member := range orderedTiers {
		row := make(map[Tier]decimal.Decimal, len(orderedTiers))
		prev := decimal.Zero
		for _, recipient := range orderedTiers {
			value := decimal.Zero
			if overrides != nil && overrides[member] != nil {
				value = overrides[member][recipient]
			}
			if !isRate(value) {
				return nil, fmt.Errorf("override %s→%s must be within [0,1]", member, recipient)
			}
			if value.LessThan(prev) {
				return nil, fmt.Errorf("override for member %s must not decrease with recipient rank (%s)", member, recipient)
			}
			row[recipient] = value
			prev = value
		}
		table[member] = row
	}
	for member := range overrides {
		if !member.Valid() {
			return nil, fmt.Errorf("unknown override member tier: %q", member)
		}
	}

	if !isRate(vatRate) {
		return nil, errors.New("vat rate must be within [0,1]")
	}
	return &Policy{rules: ruleMap, overrides: table, vatRate: vatRate}, nil
}

// NewPolicyFromSettings 从字符串配置构建规则表，空配置回落到默认值
func NewPolicyFromSettings(tiers []TierSetting, overrides map[string]map[string]string, vatRate string) (*Policy, error) {
	rules := DefaultTierRules()
	if len(tiers) > 0 {
		rules = make([]TierRule, 0, len(tiers))
		for _, item := range tiers {
			tier, err := ParseTier(item.Name)
			if err != nil {
				return nil, err
			}
			threshold, err := parseDecimal(item.Threshold, "threshold")
			if err != nil {
				return nil, fmt.Errorf("tier %s: %w", tier, err)
			}
			direct, err := parseDecimal(item.DirectRate, "direct_rate")
			if err != nil {
				return nil, fmt.Errorf("tier %s: %w", tier, err)
			}
			discount, err := parseDecimal(item.DiscountRate, "discount_rate")
			if err != nil {
				return nil, fmt.Errorf("tier %s: %w", tier, err)
			}
			rules = append(rules, TierRule{Tier: tier, Threshold: threshold, DirectRate: direct, DiscountRate: discount})
		}
	}

	table := DefaultOverrides()
	if len(overrides) > 0 {
		table = make(map[Tier]map[Tier]decimal.Decimal, len(overrides))
		for rawMember, row := range overrides {
			member, err := ParseTier(rawMember)
			if err != nil {
				return nil, err
			}
			parsed := make(map[Tier]decimal.Decimal, len(row))
			for rawRecipient, rawRate := range row {
				recipient, err := ParseTier(rawRecipient)
				if err != nil {
					return nil, err
				}
				value, err := parseDecimal(rawRate, "override")
				if err != nil {
					return nil, fmt.Errorf("override %s→%s: %w", member, recipient, err)
				}
				parsed[recipient] = value
			}
			table[member] = parsed
		}
	}

	vat := defaultVATRate
	if strings.TrimSpace(vatRate) != "" {
		parsed, err := parseDecimal(vatRate, "vat_rate")
		if err != nil {
			return nil, err
		}
		vat = parsed
	}
	return NewPolicy(rules, table, vat)
}

// ResolveTier 返回累计销售额满足门槛的最高等级
func (p *Policy) ResolveTier(accumulatedSales decimal.Decimal) Tier {
	resolved := Starter
	for _, tier := range orderedTiers {
		if accumulatedSales.GreaterThanOrEqual(p.rules[tier].Threshold) {
			resolved = tier
		}
	}
	return resolved
}

// Threshold 返回等级门槛
func (p *Policy) Threshold(tier Tier) decimal.Decimal {
	return p.rules[tier].Threshold
}

// NextTier 返回下一等级，最高等级返回 false
func (p *Policy) NextTier(tier Tier) (Tier, bool) {
	rank := tier.Rank()
	if rank < 0 || rank+1 >= len(orderedTiers) {
		return "", false
	}
	return orderedTiers[rank+1], true
}

// DirectRate 直推佣金比例
func (p *Policy) DirectRate(tier Tier) decimal.Decimal {
	return p.rules[tier].DirectRate
}

// OverrideRate 团队覆盖佣金比例：member 为产生销售的会员等级，recipient 为上级等级
func (p *Policy) OverrideRate(member, recipient Tier) decimal.Decimal {
	row, ok := p.overrides[member]
	if !ok {
		return decimal.Zero
	}
	return row[recipient]
}

// DiscountRate 会员折扣比例
func (p *Policy) DiscountRate(tier Tier) decimal.Decimal {
	return p.rules[tier].DiscountRate
}

// MemberDiscount 会员折扣金额（不取整）
func (p *Policy) MemberDiscount(tier Tier, price decimal.Decimal) decimal.Decimal {
	return price.Mul(p.DiscountRate(tier))
}

// VATRate 增值税率
func (p *Policy) VATRate() decimal.Decimal {
	return p.vatRate
}

// Rules 按等级顺序返回规则
func (p *Policy) Rules() []TierRule {
	result := make([]TierRule, 0, len(orderedTiers))
	for _, tier := range orderedTiers {
		result = append(result, p.rules[tier])
	}
	return result
}

// OverrideTable 返回覆盖佣金表副本
func (p *Policy) OverrideTable() map[Tier]map[Tier]decimal.Decimal {
	result := make(map[Tier]map[Tier]decimal.Decimal, len(p.overrides))
	for member, row := range p.overrides {
		copied := make(map[Tier]decimal.Decimal, len(row))
		for recipient, value := range row {
			copied[recipient] = value
		}
		result[member] = copied
	}
	return result
}

func isRate(value decimal.Decimal) bool {
	return !value.IsNegative() && value.LessThanOrEqual(one)
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return value, nil
}
