package service

import (
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo  repository.CouponRepository
	audit *AuditService
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository, audit *AuditService) *CouponAdminService {
	return &CouponAdminService{repo: repo, audit: audit}
}

// CouponInput 创建/更新优惠券输入
// percent 类型 Value 取 (0, 1]，fixed 类型为正数金额。
type CouponInput struct {
	Code       string
	Type       string
	Value      decimal.Decimal
	UsageLimit int
	StartsAt   *time.Time
	EndsAt     *time.Time
	IsActive   *bool
}

// List 优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	filter.Code = normalizeCouponCode(filter.Code)
	return s.repo.List(filter)
}

// Get 查看优惠券
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	coupon, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// Create 创建优惠券
func (s *CouponAdminService) Create(actor Actor, input CouponInput) (*models.Coupon, error) {
	input, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	exist, err := s.repo.GetByCode(input.Code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	now := time.Now()
	coupon := &models.Coupon{
		Code:       input.Code,
		Type:       input.Type,
		Value:      input.Value,
		UsageLimit: input.UsageLimit,
		StartsAt:   input.StartsAt,
		EndsAt:     input.EndsAt,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(coupon); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}
	// is_active 列带默认值，false 需要显式回写
	if !isActive {
		if err := s.repo.Update(coupon); err != nil {
			return nil, err
		}
	}
	s.record(actor, constants.AuditActionCouponCreate, coupon)
	return coupon, nil
}

// Update 更新优惠券；已使用次数保持不变
func (s *CouponAdminService) Update(actor Actor, id uint, input CouponInput) (*models.Coupon, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	input, err = normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	if input.Code != existing.Code {
		dup, err := s.repo.GetByCode(input.Code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrCouponCodeExists
		}
	}

	existing.Code = input.Code
	existing.Type = input.Type
	existing.Value = input.Value
	existing.UsageLimit = input.UsageLimit
	existing.StartsAt = input.StartsAt
	existing.EndsAt = input.EndsAt
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}
	existing.UpdatedAt = time.Now()
	if err := s.repo.Update(existing); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}
	s.record(actor, constants.AuditActionCouponUpdate, existing)
	return existing, nil
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(actor Actor, id uint) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.record(actor, constants.AuditActionCouponDelete, existing)
	return nil
}

func (s *CouponAdminService) record(actor Actor, action string, coupon *models.Coupon) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(AuditRecordInput{
		Actor:      actor,
		Action:     action,
		TargetType: constants.AuditTargetCoupon,
		TargetID:   coupon.ID,
		Detail: models.JSON{
			"code":        coupon.Code,
			"type":        coupon.Type,
			"value":       coupon.Value.String(),
			"usage_limit": coupon.UsageLimit,
			"is_active":   coupon.IsActive,
		},
	})
	if err != nil {
		logger.Warnw("coupon_audit_failed", "coupon_id", coupon.ID, "action", action, "error", err)
	}
}

func normalizeCouponInput(input CouponInput) (CouponInput, error) {
	input.Code = normalizeCouponCode(input.Code)
	if input.Code == "" || len(input.Code) > 64 {
		return input, ErrInvalidCoupon
	}
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	switch input.Type {
	case constants.CouponTypeFixed:
		input.Value = input.Value.Round(2)
	case constants.CouponTypePercent:
		if input.Value.GreaterThan(decimal.NewFromInt(1)) {
			return input, ErrInvalidCoupon
		}
	default:
		return input, ErrInvalidCoupon
	}
	if input.Value.LessThanOrEqual(decimal.Zero) {
		return input, ErrInvalidCoupon
	}
	if input.UsageLimit < 0 {
		return input, ErrInvalidCoupon
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return input, ErrInvalidCoupon
	}
	return input, nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
