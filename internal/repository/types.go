package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Status   string
	Role     string
	Tier     string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionListFilter 查询佣金流水的过滤条件
type CommissionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Type        string
	Status      string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WalletTransactionListFilter 钱包流水过滤条件
type WalletTransactionListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Type     string
}

// CouponListFilter 优惠券列表过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}

// ProductListFilter 商品列表过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// NotificationListFilter 通知列表过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	UnreadOnly bool
}

// AuditLogListFilter 审计日志过滤条件
type AuditLogListFilter struct {
	Page        int
	PageSize    int
	OperatorID  uint
	Action      string
	TargetType  string
	TargetID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TeamMemberRow 下线成员及其相对深度
type TeamMemberRow struct {
	MemberID uint
	Depth    int
}

// CommissionTotalsRow 会员佣金汇总
type CommissionTotalsRow struct {
	Earned             decimal.Decimal
	Pending            decimal.Decimal
	WaitingWithdrawals decimal.Decimal
	Withdrawn          decimal.Decimal
}

// WalletJournalRow 钱包流水按用户汇总（用于对账）
type WalletJournalRow struct {
	UserID  uint
	Balance decimal.Decimal
	Net     decimal.Decimal
}

// sumRow 聚合求和的扫描目标
type sumRow struct {
	Total decimal.Decimal `gorm:"column:total"`
}
