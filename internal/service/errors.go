package service

import (
	"errors"
)

// ErrorKind 业务错误分类，供接口层映射响应码
type ErrorKind string

const (
	KindUnknown             ErrorKind = ""
	KindReferrerRequired    ErrorKind = "referrer_required"
	KindNoAddress           ErrorKind = "no_address"
	KindInsufficientFunds   ErrorKind = "insufficient_funds"
	KindInvalidCoupon       ErrorKind = "invalid_coupon"
	KindInvalidReferralCode ErrorKind = "invalid_referral_code"
	KindInvalidBankAccount  ErrorKind = "invalid_bank_account"
	KindNotFound            ErrorKind = "not_found"
	KindInvalidStatus       ErrorKind = "invalid_status"
	KindInvalidAmount       ErrorKind = "invalid_amount"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindConflict            ErrorKind = "conflict"
	KindInternal            ErrorKind = "internal"
)

type kindError struct {
	kind ErrorKind
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func newKindError(kind ErrorKind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// KindOf 返回错误链上的业务分类
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var target *kindError
	if errors.As(err, &target) {
		return target.kind
	}
	var kinded interface{ Kind() ErrorKind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return KindUnknown
}

// 结算
var (
	ErrReferrerRequired = newKindError(KindReferrerRequired, "referrer required before checkout")
	ErrNoAddress        = newKindError(KindNoAddress, "shipping address required")
	ErrCartEmpty        = newKindError(KindInvalidInput, "cart is empty")
	ErrProductNotFound  = newKindError(KindNotFound, "product not found")
	ErrProductInactive  = newKindError(KindInvalidInput, "product not available")
	ErrInvalidQuantity  = newKindError(KindInvalidInput, "invalid quantity")
	ErrPaymentMethod    = newKindError(KindInvalidInput, "unsupported payment method")
	ErrInvalidProduct   = newKindError(KindInvalidInput, "invalid product")
	ErrProductSKUExists = newKindError(KindConflict, "product sku already exists")
)

// 优惠券
var (
	ErrInvalidCoupon    = newKindError(KindInvalidCoupon, "invalid coupon")
	ErrCouponNotFound   = newKindError(KindInvalidCoupon, "coupon not found")
	ErrCouponInactive   = newKindError(KindInvalidCoupon, "coupon inactive")
	ErrCouponNotStarted = newKindError(KindInvalidCoupon, "coupon not started")
	ErrCouponExpired    = newKindError(KindInvalidCoupon, "coupon expired")
	ErrCouponUsageLimit = newKindError(KindInvalidCoupon, "coupon usage limit reached")
	ErrCouponCodeExists = newKindError(KindConflict, "coupon code already exists")
)

// 推荐关系
var (
	ErrInvalidReferralCode  = newKindError(KindInvalidReferralCode, "invalid referral code")
	ErrReferralSelf         = newKindError(KindInvalidReferralCode, "cannot refer yourself")
	ErrReferralAlreadyBound = newKindError(KindInvalidReferralCode, "referrer already linked")
	ErrReferralCycle        = newKindError(KindInvalidReferralCode, "referral cycle detected")
)

// 钱包与提现
var (
	ErrInsufficientFunds             = newKindError(KindInsufficientFunds, "insufficient wallet balance")
	ErrInvalidAmount                 = newKindError(KindInvalidAmount, "invalid amount")
	ErrWithdrawBelowMinimum          = newKindError(KindInvalidAmount, "amount below minimum withdrawal")
	ErrInvalidBankAccount            = newKindError(KindInvalidBankAccount, "invalid bank account")
	ErrWithdrawalNotFound            = newKindError(KindNotFound, "withdrawal not found")
	ErrWithdrawalStatusInvalid       = newKindError(KindInvalidStatus, "withdrawal status invalid")
	ErrWalletAccountNotFound         = newKindError(KindNotFound, "wallet account not found")
	ErrWalletAccountCreateFailed     = newKindError(KindInternal, "wallet account create failed")
	ErrWalletAccountUpdateFailed     = newKindError(KindInternal, "wallet account update failed")
	ErrWalletTransactionCreateFailed = newKindError(KindInternal, "wallet transaction create failed")
)

// 订单与账本
var (
	ErrOrderNotFound       = newKindError(KindNotFound, "order not found")
	ErrOrderStatusInvalid  = newKindError(KindInvalidStatus, "order status transition not allowed")
	ErrOrderCreateFailed   = newKindError(KindInternal, "order create failed")
	ErrOrderUpdateFailed   = newKindError(KindInternal, "order update failed")
	ErrTransactionNotFound = newKindError(KindNotFound, "transaction not found")
	ErrLedgerWriteFailed   = newKindError(KindInternal, "ledger write failed")
)

// 用户
var (
	ErrUserNotFound          = newKindError(KindNotFound, "user not found")
	ErrUserDisabled          = newKindError(KindUnauthorized, "user disabled")
	ErrEmailExists           = newKindError(KindConflict, "email already registered")
	ErrInvalidEmail          = newKindError(KindInvalidInput, "invalid email")
	ErrInvalidCredentials    = newKindError(KindUnauthorized, "invalid email or password")
	ErrInvalidToken          = newKindError(KindUnauthorized, "invalid token")
	ErrWeakPassword          = newKindError(KindInvalidInput, "password does not meet policy")
	ErrMemberHasDownline     = newKindError(KindConflict, "member still has downline")
	ErrAddressNotFound       = newKindError(KindNotFound, "address not found")
	ErrInvalidAddress        = newKindError(KindInvalidInput, "invalid address")
	ErrNotificationNotFound  = newKindError(KindNotFound, "notification not found")
	ErrCannotDeleteSuperUser = newKindError(KindConflict, "super admin cannot be deleted")
)

// 基础设施
var (
	ErrQueueUnavailable      = newKindError(KindInternal, "queue unavailable")
	ErrDashboardRangeInvalid = newKindError(KindInvalidInput, "dashboard range invalid")
)
