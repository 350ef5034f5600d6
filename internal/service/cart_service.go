package service

import (
	"time"

	"github.com/synergy-flow/internal/commission"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
)

const maxCartItemQuantity = 999

// CartService 购物车服务
type CartService struct {
	policy      *commission.Policy
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
}

// CartLine 购物车行
type CartLine struct {
	ProductID uint         `json:"product_id"`
	SKU       string       `json:"sku"`
	Name      string       `json:"name"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	LineTotal models.Money `json:"line_total"`
}

// CartView 购物车与金额明细（展示精度）
type CartView struct {
	Tier       string           `json:"tier"`
	Items      []CartLine       `json:"items"`
	CouponCode string           `json:"coupon_code,omitempty"`
	Totals     commission.Totals `json:"totals"`
}

// NewCartService 创建购物车服务
func NewCartService(
	policy *commission.Policy,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	userRepo repository.UserRepository,
) *CartService {
	if policy == nil {
		policy = commission.DefaultPolicy()
	}
	return &CartService{
		policy:      policy,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		userRepo:    userRepo,
	}
}

// GetCart 获取购物车及金额明细
func (s *CartService) GetCart(userID uint) (*CartView, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListItems(userID)
	if err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.GetCart(userID)
	if err != nil {
		return nil, err
	}
	var coupon *models.Coupon
	if cart != nil && cart.CouponCode != "" {
		// 已失效的优惠券在展示时不计入，结算时会明确报错
		if valid, loadErr := s.LoadValidCoupon(cart.CouponCode, time.Now()); loadErr == nil {
			coupon = valid
		}
	}
	view := s.buildView(user, items, coupon)
	if cart != nil {
		view.CouponCode = cart.CouponCode
	}
	return view, nil
}

// GetCartTotals 仅返回金额明细
func (s *CartService) GetCartTotals(userID uint) (commission.Totals, error) {
	view, err := s.GetCart(userID)
	if err != nil {
		return commission.Totals{}, err
	}
	return view.Totals, nil
}

// UpsertItem 设置商品数量
func (s *CartService) UpsertItem(userID, productID uint, quantity int) (*CartView, error) {
	if quantity <= 0 || quantity > maxCartItemQuantity {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}
	now := time.Now()
	if err := s.cartRepo.UpsertItem(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// RemoveItem 移除商品
func (s *CartService) RemoveItem(userID, productID uint) (*CartView, error) {
	if err := s.cartRepo.DeleteItem(userID, productID); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.Clear(userID)
}

// ApplyCoupon 应用优惠券，新券替换旧券
func (s *CartService) ApplyCoupon(userID uint, code string) (*CartView, error) {
	code = normalizeCouponCode(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}
	if _, err := s.LoadValidCoupon(code, time.Now()); err != nil {
		return nil, err
	}
	if err := s.cartRepo.SetCoupon(userID, code, time.Now()); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// RemoveCoupon 移除优惠券
func (s *CartService) RemoveCoupon(userID uint) (*CartView, error) {
	if err := s.cartRepo.SetCoupon(userID, "", time.Now()); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// LoadValidCoupon 读取并校验优惠券（存在、启用、时间窗口、使用次数）
func (s *CartService) LoadValidCoupon(code string, now time.Time) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if err := validateCoupon(coupon, now); err != nil {
		return nil, err
	}
	return coupon, nil
}

func validateCoupon(coupon *models.Coupon, now time.Time) error {
	switch {
	case coupon == nil:
		return ErrCouponNotFound
	case !coupon.IsActive:
		return ErrCouponInactive
	case coupon.StartsAt != nil && now.Before(*coupon.StartsAt):
		return ErrCouponNotStarted
	case coupon.EndsAt != nil && now.After(*coupon.EndsAt):
		return ErrCouponExpired
	case coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit:
		return ErrCouponUsageLimit
	case coupon.Value.LessThanOrEqual(decimal.Zero):
		return ErrInvalidCoupon
	}
	return nil
}

func (s *CartService) loadUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *CartService) buildView(user *models.User, items []models.CartItem, coupon *models.Coupon) *CartView {
	tier := commission.NormalizeTier(user.Tier)
	lines, priced := cartLines(items)
	totals := s.policy.CartTotals(priced, tier, toCommissionCoupon(coupon))
	return &CartView{
		Tier:   tier.String(),
		Items:  lines,
		Totals: totals.Rounded(),
	}
}

// cartLines 把购物车项转换为展示行与计价行，下架或缺失的商品不参与计价
func cartLines(items []models.CartItem) ([]CartLine, []commission.Line) {
	lines := make([]CartLine, 0, len(items))
	priced := make([]commission.Line, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive || item.Quantity <= 0 {
			continue
		}
		price := item.Product.Price.Decimal
		lines = append(lines, CartLine{
			ProductID: item.ProductID,
			SKU:       item.Product.SKU,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price,
			Quantity:  item.Quantity,
			LineTotal: models.NewMoneyFromDecimal(price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		})
		priced = append(priced, commission.Line{Price: price, Quantity: item.Quantity})
	}
	return lines, priced
}

func toCommissionCoupon(coupon *models.Coupon) *commission.Coupon {
	if coupon == nil {
		return nil
	}
	return &commission.Coupon{
		Code:  coupon.Code,
		Type:  coupon.Type,
		Value: coupon.Value,
	}
}
