package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon 优惠券
// percent 类型 Value 为比例（0.10 即 10%），fixed 类型为金额。
type Coupon struct {
	ID         uint            `gorm:"primarykey" json:"id"`                            // 主键
	Code       string          `gorm:"uniqueIndex;not null" json:"code"`                // 优惠码（大写）
	Type       string          `gorm:"type:varchar(20);not null" json:"type"`           // 类型（percent/fixed）
	Value      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"value"`        // 数值
	UsageLimit int             `gorm:"not null;default:0" json:"usage_limit"`           // 总使用上限（0 表示不限制）
	UsedCount  int             `gorm:"not null;default:0" json:"used_count"`            // 已使用次数
	StartsAt   *time.Time      `gorm:"index" json:"starts_at"`                          // 生效时间
	EndsAt     *time.Time      `gorm:"index" json:"ends_at"`                            // 失效时间
	IsActive   bool            `gorm:"not null;default:true" json:"is_active"`          // 是否启用
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt  time.Time       `gorm:"index" json:"updated_at"`                         // 更新时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// Usable 判断优惠券在指定时间是否可用
func (c *Coupon) Usable(now time.Time) bool {
	if c == nil || !c.IsActive {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}
