package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// AffiliateMetrics 分销账务指标
type AffiliateMetrics struct {
	checkouts        *prometheus.CounterVec
	commissionAmount *prometheus.CounterVec
	commissionCount  *prometheus.CounterVec
	withdrawals      *prometheus.CounterVec
	withdrawalAmount *prometheus.CounterVec
	tierPromotions   *prometheus.CounterVec
	ledgerMismatches prometheus.Gauge
	eventFailures    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var (
	affiliateOnce     sync.Once
	affiliateRegistry *AffiliateMetrics
)

// Affiliate 返回进程内唯一的指标集合
func Affiliate() *AffiliateMetrics {
	affiliateOnce.Do(func() {
		affiliateRegistry = &AffiliateMetrics{
			checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_checkouts_total",
				Help: "Checkouts processed by payment method and result.",
			}, []string{"payment_method", "result"}),
			commissionAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_commission_amount_total",
				Help: "Commission amount granted by type.",
			}, []string{"type"}),
			commissionCount: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_commission_entries_total",
				Help: "Commission ledger entries created by type.",
			}, []string{"type"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_withdrawals_total",
				Help: "Withdrawal lifecycle actions.",
			}, []string{"action"}),
			withdrawalAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_withdrawal_amount_total",
				Help: "Withdrawal amount by lifecycle action.",
			}, []string{"action"}),
			tierPromotions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_tier_promotions_total",
				Help: "Tier promotions by target tier.",
			}, []string{"to_tier"}),
			ledgerMismatches: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "synergy_wallet_journal_mismatches",
				Help: "Wallet accounts whose balance differs from the journal net at the last reconcile.",
			}),
			eventFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_event_publish_failures_total",
				Help: "Failed event deliveries by sink and event.",
			}, []string{"sink", "event"}),
			httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synergy_http_requests_total",
				Help: "HTTP requests by route and status.",
			}, []string{"method", "route", "status"}),
			httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "synergy_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			}, []string{"method", "route"}),
		}
		prometheus.MustRegister(
			affiliateRegistry.checkouts,
			affiliateRegistry.commissionAmount,
			affiliateRegistry.commissionCount,
			affiliateRegistry.withdrawals,
			affiliateRegistry.withdrawalAmount,
			affiliateRegistry.tierPromotions,
			affiliateRegistry.ledgerMismatches,
			affiliateRegistry.eventFailures,
			affiliateRegistry.httpRequests,
			affiliateRegistry.httpDuration,
		)
	})
	return affiliateRegistry
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	Affiliate()
	return promhttp.Handler()
}

// ObserveCheckout 记录一次结算
func (m *AffiliateMetrics) ObserveCheckout(paymentMethod string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.checkouts.WithLabelValues(labelOr(paymentMethod), result).Inc()
}

// ObserveCommission 记录一笔佣金
func (m *AffiliateMetrics) ObserveCommission(kind string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	kind = labelOr(kind)
	m.commissionCount.WithLabelValues(kind).Inc()
	m.commissionAmount.WithLabelValues(kind).Add(amount.InexactFloat64())
}

// ObserveWithdrawal 记录提现动作（request/approve/reject/refund）
func (m *AffiliateMetrics) ObserveWithdrawal(action string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	action = labelOr(action)
	m.withdrawals.WithLabelValues(action).Inc()
	m.withdrawalAmount.WithLabelValues(action).Add(amount.Abs().InexactFloat64())
}

// ObserveTierPromotion 记录等级晋升
func (m *AffiliateMetrics) ObserveTierPromotion(toTier string) {
	if m == nil {
		return
	}
	m.tierPromotions.WithLabelValues(labelOr(toTier)).Inc()
}

// SetLedgerMismatches 记录最近一次对账的不一致账户数
func (m *AffiliateMetrics) SetLedgerMismatches(count int) {
	if m == nil {
		return
	}
	m.ledgerMismatches.Set(float64(count))
}

// ObserveEventFailure 记录事件投递失败
func (m *AffiliateMetrics) ObserveEventFailure(sink, event string) {
	if m == nil {
		return
	}
	m.eventFailures.WithLabelValues(labelOr(sink), labelOr(event)).Inc()
}

// ObserveHTTP 记录 HTTP 请求
func (m *AffiliateMetrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	route = labelOr(route)
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func labelOr(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
