package models

import (
	"time"
)

// Product 商品表
type Product struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                 // 主键
	SKU         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`     // 商品编码
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`               // 名称
	Description string    `gorm:"type:text" json:"description"`                         // 描述
	Price       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`   // 单价
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`                  // 是否上架
	SortOrder   int       `gorm:"default:0;index" json:"sort_order"`                    // 排序权重
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                           // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
