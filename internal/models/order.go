package models

import (
	"time"
)

// Order 订单表
type Order struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo         string     `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	UserID          uint       `gorm:"index;not null" json:"user_id"`                                 // 下单会员
	Status          string     `gorm:"type:varchar(20);index;not null" json:"status"`                 // 订单状态
	Currency        string     `gorm:"type:varchar(8);not null" json:"currency"`                      // 币种
	Subtotal        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`         // 商品小计
	MemberDiscount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"member_discount"`  // 会员折扣
	CouponCode      string     `gorm:"type:varchar(64);not null;default:''" json:"coupon_code"`       // 优惠码
	CouponDiscount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"coupon_discount"`  // 优惠券抵扣
	VAT             Money      `gorm:"column:vat;type:decimal(20,2);not null;default:0" json:"vat"`   // 增值税
	Total           Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total"`            // 应付总额
	SalesVolume     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"sales_volume"`     // 计佣销售额
	BuyerTierAtSale string     `gorm:"type:varchar(20);not null" json:"buyer_tier_at_sale"`           // 下单时会员等级
	PaymentMethod   string     `gorm:"type:varchar(20);not null" json:"payment_method"`               // 支付方式
	ShippingAddress JSON       `gorm:"type:json" json:"shipping_address"`                             // 收货地址快照
	PaidAt          *time.Time `gorm:"index" json:"paid_at"`                                          // 支付时间
	CancelledAt     *time.Time `gorm:"index" json:"cancelled_at"`                                     // 取消时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                       // 更新时间

	Items    []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`    // 订单项
	Timeline []OrderTimeline `gorm:"foreignKey:OrderID" json:"timeline,omitempty"` // 状态时间线
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单项
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	OrderID     uint      `gorm:"index;not null" json:"order_id"`
	ProductID   uint      `gorm:"index;not null" json:"product_id"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"` // 商品名称快照
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	TotalPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderTimeline 订单状态流转记录
type OrderTimeline struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	OrderID    uint      `gorm:"index;not null" json:"order_id"`
	FromStatus string    `gorm:"type:varchar(20);not null;default:''" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(20);not null" json:"to_status"`
	Note       string    `gorm:"type:varchar(255)" json:"note"`
	OperatorID uint      `gorm:"not null;default:0" json:"operator_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (OrderTimeline) TableName() string {
	return "order_timelines"
}
