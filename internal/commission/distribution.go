package commission

import (
	"github.com/synergy-flow/internal/constants"

	"github.com/shopspring/decimal"
)

// ChainMember 推荐链上的一个上级，按从直接上级到根的顺序排列
type ChainMember struct {
	UserID uint
	Tier   Tier
}

// Grant 一笔待入账的佣金
type Grant struct {
	UserID uint            `json:"user_id"`
	Level  int             `json:"level"`
	Type   string          `json:"type"`
	Tier   Tier            `json:"tier"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Distribute 沿推荐链计算佣金
// 第 1 层按直接上级等级取 DirectRate；第 2 层起按 (buyerTier, 上级等级) 取 OverrideRate。
// maxDepth <= 0 表示不限层级；金额为 0 的层级不产生记录。
func (p *Policy) Distribute(buyerTier Tier, chain []ChainMember, volume decimal.Decimal, maxDepth int) []Grant {
	if volume.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	grants := make([]Grant, 0, len(chain))
	for i, member := range chain {
		level := i + 1
		if maxDepth > 0 && level > maxDepth {
			break
		}
		var rate decimal.Decimal
		grantType := constants.CommissionTypeTeam
		if level == 1 {
			rate = p.DirectRate(member.Tier)
			grantType = constants.CommissionTypeDirect
		} else {
			rate = p.OverrideRate(buyerTier, member.Tier)
		}
		amount := Round(volume.Mul(rate))
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		grants = append(grants, Grant{
			UserID: member.UserID,
			Level:  level,
			Type:   grantType,
			Tier:   member.Tier,
			Rate:   rate,
			Amount: amount,
		})
	}
	return grants
}

// SumGrants 汇总佣金金额
func SumGrants(grants []Grant) decimal.Decimal {
	total := decimal.Zero
	for _, grant := range grants {
		total = total.Add(grant.Amount)
	}
	return total
}
