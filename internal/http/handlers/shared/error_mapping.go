package shared

import (
	"errors"

	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/i18n"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// serviceErrorRules 先按具体哨兵错误匹配，未命中时再按错误分类兜底
var serviceErrorRules = []MappedHandlerError{
	{Target: service.ErrReferrerRequired, Code: response.CodeBadRequest, Key: "error.referrer_required"},
	{Target: service.ErrNoAddress, Code: response.CodeBadRequest, Key: "error.no_address"},
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductInactive, Code: response.CodeBadRequest, Key: "error.product_inactive"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.invalid_quantity"},
	{Target: service.ErrPaymentMethod, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrInvalidProduct, Code: response.CodeBadRequest, Key: "error.invalid_product"},
	{Target: service.ErrProductSKUExists, Code: response.CodeConflict, Key: "error.product_sku_exists"},

	{Target: service.ErrCouponNotFound, Code: response.CodeBadRequest, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponInactive, Code: response.CodeBadRequest, Key: "error.coupon_inactive"},
	{Target: service.ErrCouponNotStarted, Code: response.CodeBadRequest, Key: "error.coupon_not_started"},
	{Target: service.ErrCouponExpired, Code: response.CodeBadRequest, Key: "error.coupon_expired"},
	{Target: service.ErrCouponUsageLimit, Code: response.CodeBadRequest, Key: "error.coupon_usage_limit"},
	{Target: service.ErrCouponCodeExists, Code: response.CodeConflict, Key: "error.coupon_code_exists"},
	{Target: service.ErrInvalidCoupon, Code: response.CodeBadRequest, Key: "error.invalid_coupon"},

	{Target: service.ErrReferralSelf, Code: response.CodeBadRequest, Key: "error.referral_self"},
	{Target: service.ErrReferralAlreadyBound, Code: response.CodeBadRequest, Key: "error.referral_already_bound"},
	{Target: service.ErrReferralCycle, Code: response.CodeBadRequest, Key: "error.referral_cycle"},
	{Target: service.ErrInvalidReferralCode, Code: response.CodeBadRequest, Key: "error.invalid_referral_code"},

	{Target: service.ErrInsufficientFunds, Code: response.CodeBadRequest, Key: "error.insufficient_funds"},
	{Target: service.ErrWithdrawBelowMinimum, Code: response.CodeBadRequest, Key: "error.withdraw_below_minimum"},
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrInvalidBankAccount, Code: response.CodeBadRequest, Key: "error.invalid_bank_account"},
	{Target: service.ErrWithdrawalNotFound, Code: response.CodeNotFound, Key: "error.withdrawal_not_found"},
	{Target: service.ErrWithdrawalStatusInvalid, Code: response.CodeBadRequest, Key: "error.withdrawal_status_invalid"},

	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
	{Target: service.ErrTransactionNotFound, Code: response.CodeNotFound, Key: "error.transaction_not_found"},

	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized, Key: "error.user_disabled"},
	{Target: service.ErrEmailExists, Code: response.CodeConflict, Key: "error.email_exists"},
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.invalid_email"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.invalid_credentials"},
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized, Key: "error.token_invalid"},
	{Target: service.ErrMemberHasDownline, Code: response.CodeConflict, Key: "error.member_has_downline"},
	{Target: service.ErrAddressNotFound, Code: response.CodeNotFound, Key: "error.address_not_found"},
	{Target: service.ErrInvalidAddress, Code: response.CodeBadRequest, Key: "error.invalid_address"},
	{Target: service.ErrNotificationNotFound, Code: response.CodeNotFound, Key: "error.notification_not_found"},
	{Target: service.ErrCannotDeleteSuperUser, Code: response.CodeConflict, Key: "error.cannot_delete_super_user"},

	{Target: service.ErrDashboardRangeInvalid, Code: response.CodeBadRequest, Key: "error.dashboard_range_invalid"},
}

// RespondWithMappedError 按规则表返回错误，未命中时使用兜底码与文案。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// RespondServiceError 把 service 层错误翻译为统一响应。
func RespondServiceError(c *gin.Context, err error) {
	var policyErr interface {
		Key() string
		Args() []interface{}
	}
	if errors.As(err, &policyErr) {
		locale := i18n.ResolveLocale(c)
		response.Error(c, response.CodeBadRequest, i18n.Sprintf(locale, policyErr.Key(), policyErr.Args()...))
		return
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	code, key := codeForKind(service.KindOf(err))
	if code == response.CodeInternal {
		RespondError(c, code, key, err)
		return
	}
	RespondError(c, code, key, nil)
}

func codeForKind(kind service.ErrorKind) (int, string) {
	switch kind {
	case service.KindNotFound:
		return response.CodeNotFound, "error.not_found"
	case service.KindConflict:
		return response.CodeConflict, "error.conflict"
	case service.KindUnauthorized:
		return response.CodeUnauthorized, "error.unauthorized"
	case service.KindReferrerRequired, service.KindNoAddress, service.KindInsufficientFunds,
		service.KindInvalidCoupon, service.KindInvalidReferralCode, service.KindInvalidBankAccount,
		service.KindInvalidStatus, service.KindInvalidAmount, service.KindInvalidInput:
		return response.CodeBadRequest, "error.bad_request"
	default:
		return response.CodeInternal, "error.internal"
	}
}
