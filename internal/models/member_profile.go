package models

import (
	"time"
)

// ShippingAddress 收货地址
type ShippingAddress struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	RecipientName string    `gorm:"type:varchar(120);not null" json:"recipient_name"`
	Phone         string    `gorm:"type:varchar(32);not null" json:"phone"`
	Line1         string    `gorm:"type:varchar(255);not null" json:"line1"`
	Line2         string    `gorm:"type:varchar(255)" json:"line2"`
	District      string    `gorm:"type:varchar(120)" json:"district"`
	Province      string    `gorm:"type:varchar(120);not null" json:"province"`
	PostalCode    string    `gorm:"type:varchar(16);not null" json:"postal_code"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}

// Snapshot 生成订单上保存的地址快照
func (a ShippingAddress) Snapshot() JSON {
	return JSON{
		"id":             a.ID,
		"recipient_name": a.RecipientName,
		"phone":          a.Phone,
		"line1":          a.Line1,
		"line2":          a.Line2,
		"district":       a.District,
		"province":       a.Province,
		"postal_code":    a.PostalCode,
	}
}

// BankAccount 提现银行账户
type BankAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	BankName      string    `gorm:"type:varchar(120);not null" json:"bank_name"`
	AccountName   string    `gorm:"type:varchar(120);not null" json:"account_name"`
	AccountNumber string    `gorm:"type:varchar(32);not null" json:"account_number"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (BankAccount) TableName() string {
	return "bank_accounts"
}

// Notification 站内通知
type Notification struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"type:varchar(32);not null;index" json:"type"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	Payload   JSON       `gorm:"type:json" json:"payload"`
	ReadAt    *time.Time `gorm:"index" json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// AuditLog 后台操作审计日志（删除、审批、状态变更、授权）
type AuditLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	OperatorID    uint      `gorm:"index;not null" json:"operator_id"`
	OperatorEmail string    `gorm:"type:varchar(255);index;not null;default:''" json:"operator_email"`
	Action        string    `gorm:"type:varchar(64);index;not null" json:"action"`
	TargetType    string    `gorm:"type:varchar(64);index;not null" json:"target_type"`
	TargetID      uint      `gorm:"index;not null;default:0" json:"target_id"`
	RequestID     string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	DetailJSON    JSON      `gorm:"type:json" json:"detail"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
