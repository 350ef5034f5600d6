package commission

import (
	"strings"

	"github.com/synergy-flow/internal/constants"

	"github.com/shopspring/decimal"
)

// Line 购物车明细
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Coupon 参与计算的优惠券
// percent 类型的 Value 为比例（0.10 表示 10%），fixed 类型为金额。
type Coupon struct {
	Code  string
	Type  string
	Value decimal.Decimal
}

// Totals 购物车金额明细（全精度）
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	MemberDiscount decimal.Decimal `json:"member_discount"`
	AfterMember    decimal.Decimal `json:"after_member"`
	CouponCode     string          `json:"coupon_code"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	AfterCoupon    decimal.Decimal `json:"after_coupon"`
	VAT            decimal.Decimal `json:"vat"`
	Total          decimal.Decimal `json:"total"`
}

// Round 四舍五入到 2 位小数（远离零方向），仅用于展示与落库
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// Subtotal 计算 Σ price × quantity
func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}

// CouponDiscount 在会员折扣之后计算优惠券抵扣
// percent: afterMember × value；fixed: min(value, afterMember)。
func CouponDiscount(afterMember decimal.Decimal, coupon *Coupon) decimal.Decimal {
	if coupon == nil || afterMember.LessThanOrEqual(decimal.Zero) || coupon.Value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	switch strings.ToLower(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypePercent:
		value := coupon.Value
		if value.GreaterThan(one) {
			value = one
		}
		return afterMember.Mul(value)
	case constants.CouponTypeFixed:
		return decimal.Min(coupon.Value, afterMember)
	default:
		return decimal.Zero
	}
}

// CartTotals 计算购物车金额，运算顺序固定
func (p *Policy) CartTotals(lines []Line, tier Tier, coupon *Coupon) Totals {
	subtotal := Subtotal(lines)
	memberDiscount := p.MemberDiscount(tier, subtotal)
	afterMember := subtotal.Sub(memberDiscount)
	couponDiscount := CouponDiscount(afterMember, coupon)
	afterCoupon := afterMember.Sub(couponDiscount)
	vat := afterCoupon.Mul(p.vatRate)

	totals := Totals{
		Subtotal:       subtotal,
		MemberDiscount: memberDiscount,
		AfterMember:    afterMember,
		CouponDiscount: couponDiscount,
		AfterCoupon:    afterCoupon,
		VAT:            vat,
		Total:          afterCoupon.Add(vat),
	}
	if coupon != nil {
		totals.CouponCode = coupon.Code
	}
	return totals
}

// SalesVolume 计佣销售额：扣除会员折扣与优惠券后、未含税
func (t Totals) SalesVolume() decimal.Decimal {
	return t.AfterCoupon
}

// Rounded 返回 2 位小数的展示副本
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:       Round(t.Subtotal),
		MemberDiscount: Round(t.MemberDiscount),
		AfterMember:    Round(t.AfterMember),
		CouponCode:     t.CouponCode,
		CouponDiscount: Round(t.CouponDiscount),
		AfterCoupon:    Round(t.AfterCoupon),
		VAT:            Round(t.VAT),
		Total:          Round(t.Total),
	}
}
