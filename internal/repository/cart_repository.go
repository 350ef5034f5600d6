package repository

import (
	"errors"
	"time"

	"github.com/synergy-flow/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository

	GetCart(userID uint) (*models.Cart, error)
	SetCoupon(userID uint, code string, now time.Time) error
	ListItems(userID uint) ([]models.CartItem, error)
	UpsertItem(item *models.CartItem) error
	DeleteItem(userID, productID uint) error
	Clear(userID uint) error
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetCart 获取购物车头信息，不存在时返回 nil
func (r *GormCartRepository) GetCart(userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// SetCoupon 设置（或清除）购物车优惠码，新码覆盖旧码
func (r *GormCartRepository) SetCoupon(userID uint, code string, now time.Time) error {
	cart, err := r.GetCart(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return r.db.Create(&models.Cart{UserID: userID, CouponCode: code, CreatedAt: now, UpdatedAt: now}).Error
	}
	return r.db.Model(cart).Updates(map[string]interface{}{
		"coupon_code": code,
		"updated_at":  now,
	}).Error
}

// ListItems 获取用户购物车项
func (r *GormCartRepository) ListItems(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertItem 添加或更新购物车项
func (r *GormCartRepository) UpsertItem(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(item).Error
	}
	if err != nil {
		return err
	}
	item.ID = existing.ID
	return r.db.Model(&existing).Updates(map[string]interface{}{
		"quantity":   item.Quantity,
		"updated_at": item.UpdatedAt,
	}).Error
}

// DeleteItem 删除购物车项
func (r *GormCartRepository) DeleteItem(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{}).Error
}

// Clear 清空购物车与优惠码
func (r *GormCartRepository) Clear(userID uint) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}
