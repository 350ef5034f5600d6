package models

import (
	"time"
)

// WalletAccount 钱包账户（每个用户一个）
type WalletAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Balance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水，Reference 唯一用于幂等
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`
	CommissionID  *uint     `gorm:"index" json:"commission_id,omitempty"`
	Type          string    `gorm:"type:varchar(32);not null;index" json:"type"`
	Direction     string    `gorm:"type:varchar(8);not null" json:"direction"`
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_before"`
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`
	Currency      string    `gorm:"type:varchar(8);not null" json:"currency"`
	Reference     string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"reference"`
	Remark        string    `gorm:"type:varchar(255)" json:"remark"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
