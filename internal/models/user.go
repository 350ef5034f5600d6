package models

import (
	"time"
)

// User 用户表（会员与管理员共用）
type User struct {
	ID                 uint       `gorm:"primarykey" json:"id"`                                                 // 主键
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`                                    // 邮箱
	PasswordHash       string     `gorm:"not null" json:"-"`                                                    // 密码哈希（不返回给前端）
	DisplayName        string     `gorm:"default:''" json:"display_name"`                                       // 昵称
	Locale             string     `gorm:"type:varchar(20);default:'th'" json:"locale"`                          // 语言偏好
	Status             string     `gorm:"type:varchar(20);default:'active'" json:"status"`                      // 账号状态
	Role               string     `gorm:"type:varchar(20);not null;default:'member';index" json:"role"`         // 角色（member/admin）
	IsSuper            bool       `gorm:"not null;default:false" json:"is_super"`                               // 超级管理员
	Tier               string     `gorm:"type:varchar(20);not null;default:'starter';index" json:"tier"`        // 会员等级
	AccumulatedSales   Money      `gorm:"type:decimal(20,2);not null;default:0" json:"accumulated_sales"`       // 累计销售额（只增不减）
	ReferralCode       string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"referral_code"`           // 推荐码
	UplineReferrerCode string     `gorm:"type:varchar(16);not null;default:'';index" json:"upline_referrer_code"` // 上级推荐码
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"`                                          // Token 版本（用于全量失效）
	LastLoginAt        *time.Time `json:"last_login_at"`                                                        // 最后登录时间
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt          time.Time  `gorm:"index" json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// HasReferrer 是否已绑定上级
func (u *User) HasReferrer() bool {
	return u != nil && u.UplineReferrerCode != ""
}

// ReferralEdge 推荐关系边：每个会员最多一个上级，只能设置一次
type ReferralEdge struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	MemberID  uint      `gorm:"not null;uniqueIndex" json:"member_id"` // 下级会员
	UplineID  uint      `gorm:"not null;index" json:"upline_id"`       // 上级会员
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ReferralEdge) TableName() string {
	return "referral_edges"
}

// TierChangeLog 等级变更记录
type TierChangeLog struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	FromTier         string    `gorm:"type:varchar(20);not null" json:"from_tier"`
	ToTier           string    `gorm:"type:varchar(20);not null" json:"to_tier"`
	AccumulatedSales Money     `gorm:"type:decimal(20,2);not null;default:0" json:"accumulated_sales"`
	OrderID          *uint     `gorm:"index" json:"order_id,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (TierChangeLog) TableName() string {
	return "tier_change_logs"
}
