package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionTransaction 佣金与提现流水
// 佣金为正数，提现为负数；重复的订单佣金由 (order_id, user_id, type) 唯一索引拦截。
type CommissionTransaction struct {
	ID            uint            `gorm:"primarykey" json:"id"`                                                                           // 主键
	UserID        uint            `gorm:"not null;index;uniqueIndex:idx_commission_order_user_type" json:"user_id"`                       // 收款会员
	Type          string          `gorm:"type:varchar(20);not null;index;uniqueIndex:idx_commission_order_user_type" json:"type"`         // direct/team/withdrawal
	Amount        Money           `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                            // 金额
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"`                                                  // 状态
	OrderID       *uint           `gorm:"index;uniqueIndex:idx_commission_order_user_type" json:"order_id,omitempty"`                     // 关联订单
	SourceUserID  *uint           `gorm:"index" json:"source_user_id,omitempty"`                                                          // 下单会员
	Level         int             `gorm:"not null;default:0" json:"level"`                                                                // 层级（1 为直推）
	Rate          decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"rate"`                                              // 佣金比例
	SalesVolume   Money           `gorm:"type:decimal(20,2);not null;default:0" json:"sales_volume"`                                      // 计佣销售额
	BankAccountID *uint           `gorm:"index" json:"bank_account_id,omitempty"`                                                         // 提现银行账户
	RejectReason  string          `gorm:"type:varchar(255);not null;default:''" json:"reject_reason"`                                     // 驳回原因
	RejectedAt    *time.Time      `json:"rejected_at,omitempty"`                                                                          // 驳回时间
	ProcessedBy   *uint           `gorm:"index" json:"processed_by,omitempty"`                                                            // 处理人
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`                                                                         // 处理时间
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`                                                                        // 创建时间
	UpdatedAt     time.Time       `gorm:"index" json:"updated_at"`                                                                        // 更新时间
}

// TableName 指定表名
func (CommissionTransaction) TableName() string {
	return "commission_transactions"
}
