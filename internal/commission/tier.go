package commission

import (
	"fmt"
	"strings"

	"github.com/synergy-flow/internal/constants"
)

// Tier 会员等级
type Tier string

const (
	Starter   Tier = constants.TierStarter
	Marketer  Tier = constants.TierMarketer
	Builder   Tier = constants.TierBuilder
	Executive Tier = constants.TierExecutive
)

var orderedTiers = []Tier{Starter, Marketer, Builder, Executive}

// Tiers 按等级从低到高返回全部等级
func Tiers() []Tier {
	result := make([]Tier, len(orderedTiers))
	copy(result, orderedTiers)
	return result
}

// Rank 返回等级序号，未知等级返回 -1
func (t Tier) Rank() int {
	for i, item := range orderedTiers {
		if item == t {
			return i
		}
	}
	return -1
}

// Valid 判断等级是否合法
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Less 判断等级是否低于 other
func (t Tier) Less(other Tier) bool {
	return t.Rank() < other.Rank()
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier 解析等级名称（大小写不敏感）
func ParseTier(raw string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if !tier.Valid() {
		return "", fmt.Errorf("unknown tier: %q", raw)
	}
	return tier, nil
}

// NormalizeTier 解析等级，非法值回落到 starter
func NormalizeTier(raw string) Tier {
	tier, err := ParseTier(raw)
	if err != nil {
		return Starter
	}
	return tier
}
