package service

import (
	"strings"
	"time"

	"github.com/synergy-flow/internal/config"

	"github.com/shopspring/decimal"
)

// AffiliateOptions 结算与提现开关
type AffiliateOptions struct {
	Currency                 string
	MaxDepth                 int
	SettleOnCheckout         bool
	RefundOnWithdrawalDelete bool
	MinWithdrawAmount        decimal.Decimal
	DashboardCacheTTL        time.Duration
}

// DefaultAffiliateOptions 默认配置：结算即入账，删除待处理提现时退款
func DefaultAffiliateOptions() AffiliateOptions {
	return AffiliateOptions{
		Currency:                 walletDefaultCurrency,
		SettleOnCheckout:         true,
		RefundOnWithdrawalDelete: true,
		MinWithdrawAmount:        decimal.Zero,
		DashboardCacheTTL:        30 * time.Second,
	}
}

// AffiliateOptionsFromConfig 从配置构建
func AffiliateOptionsFromConfig(cfg config.AffiliateConfig) AffiliateOptions {
	opts := DefaultAffiliateOptions()
	opts.Currency = normalizeWalletCurrency(cfg.Currency)
	opts.MaxDepth = cfg.MaxDepth
	opts.SettleOnCheckout = cfg.SettleOnCheckout
	opts.RefundOnWithdrawalDelete = cfg.RefundOnWithdrawalDelete
	if raw := strings.TrimSpace(cfg.MinWithdrawAmount); raw != "" {
		if value, err := decimal.NewFromString(raw); err == nil && value.GreaterThanOrEqual(decimal.Zero) {
			opts.MinWithdrawAmount = value
		}
	}
	if cfg.DashboardCacheSeconds > 0 {
		opts.DashboardCacheTTL = time.Duration(cfg.DashboardCacheSeconds) * time.Second
	}
	return opts
}
