package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/repository"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CouponRequest 创建/更新优惠券请求
// percent 类型的 value 为 0~1 的比例，fixed 为金额。
type CouponRequest struct {
	Code       string `json:"code" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Value      string `json:"value" binding:"required"`
	UsageLimit int    `json:"usage_limit" binding:"min=0"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	IsActive   *bool  `json:"is_active"`
}

func (r CouponRequest) toInput() (service.CouponInput, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return service.CouponInput{}, service.ErrInvalidCoupon
	}
	startsAt, err := handlershared.ParseTimeNullable(r.StartsAt)
	if err != nil {
		return service.CouponInput{}, service.ErrInvalidCoupon
	}
	endsAt, err := handlershared.ParseTimeNullable(r.EndsAt)
	if err != nil {
		return service.CouponInput{}, service.ErrInvalidCoupon
	}
	return service.CouponInput{
		Code:       r.Code,
		Type:       r.Type,
		Value:      value,
		UsageLimit: r.UsageLimit,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		IsActive:   r.IsActive,
	}, nil
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &parsed
		}
	}
	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// GetCoupon 优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	coupon, err := h.CouponAdminService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, coupon)
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	coupon, err := h.CouponAdminService.Create(currentActor(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	coupon, err := h.CouponAdminService.Update(currentActor(c), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CouponAdminService.Delete(currentActor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
