package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/synergy-flow/internal/cache"
	"github.com/synergy-flow/internal/commission"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
	dashboardTopEarners    = 10
)

// DashboardService 仪表盘服务
// 说明：会员首页与后台总览的聚合数据，结果短时缓存在 redis。
type DashboardService struct {
	opts           AffiliateOptions
	repo           repository.DashboardRepository
	userRepo       repository.UserRepository
	commissionRepo repository.CommissionRepository
	tiers          *TierService
	referrals      *ReferralService
	wallet         *WalletService
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(
	opts AffiliateOptions,
	repo repository.DashboardRepository,
	userRepo repository.UserRepository,
	commissionRepo repository.CommissionRepository,
	tiers *TierService,
	referrals *ReferralService,
	wallet *WalletService,
) *DashboardService {
	return &DashboardService{
		opts:           opts,
		repo:           repo,
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		tiers:          tiers,
		referrals:      referrals,
		wallet:         wallet,
	}
}

// MemberDashboard 会员首页数据
type MemberDashboard struct {
	UserID             uint            `json:"user_id"`
	ReferralCode       string          `json:"referral_code"`
	UplineReferrerCode string          `json:"upline_referrer_code"`
	Progress           TierProgress    `json:"progress"`
	WalletBalance      decimal.Decimal `json:"wallet_balance"`
	Earned             decimal.Decimal `json:"earned"`
	PendingCommission  decimal.Decimal `json:"pending_commission"`
	WaitingWithdrawals decimal.Decimal `json:"waiting_withdrawals"`
	Withdrawn          decimal.Decimal `json:"withdrawn"`
	DirectTeamSize     int64           `json:"direct_team_size"`
	TotalTeamSize      int64           `json:"total_team_size"`
	Currency           string          `json:"currency"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// GetMemberDashboard 并行聚合会员首页数据
func (s *DashboardService) GetMemberDashboard(ctx context.Context, userID uint, forceRefresh bool) (*MemberDashboard, error) {
	cacheKey := cache.MemberDashboardKey(userID)
	if !forceRefresh {
		var cached MemberDashboard
		if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	result := &MemberDashboard{
		UserID:             user.ID,
		ReferralCode:       user.ReferralCode,
		UplineReferrerCode: user.UplineReferrerCode,
		Progress:           s.tiers.Progress(user),
		Currency:           s.wallet.Currency(),
		GeneratedAt:        time.Now(),
	}

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		balance, err := s.wallet.GetBalance(user.ID)
		if err != nil {
			return fmt.Errorf("wallet balance: %w", err)
		}
		result.WalletBalance = balance
		return nil
	})
	group.Go(func() error {
		totals, err := s.commissionRepo.Totals(user.ID)
		if err != nil {
			return fmt.Errorf("commission totals: %w", err)
		}
		result.Earned = commission.Round(totals.Earned)
		result.PendingCommission = commission.Round(totals.Pending)
		result.WaitingWithdrawals = commission.Round(totals.WaitingWithdrawals)
		result.Withdrawn = commission.Round(totals.Withdrawn)
		return nil
	})
	group.Go(func() error {
		direct, total, err := s.referrals.TeamSize(user.ID)
		if err != nil {
			return fmt.Errorf("team size: %w", err)
		}
		result.DirectTeamSize = direct
		result.TotalTeamSize = total
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, cacheKey, result, s.memberCacheTTL()); err != nil {
		logger.Debugw("dashboard_member_cache_set_failed", "user_id", userID, "error", err)
	}
	return result, nil
}

// ListLedger 会员本人的佣金与提现流水
func (s *DashboardService) ListLedger(filter repository.CommissionListFilter) ([]models.CommissionTransaction, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	return s.commissionRepo.List(filter)
}

func (s *DashboardService) memberCacheTTL() time.Duration {
	if s.opts.DashboardCacheTTL > 0 {
		return s.opts.DashboardCacheTTL
	}
	return 30 * time.Second
}

// DashboardQueryInput 后台仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 后台总览
type DashboardOverviewResponse struct {
	Range     string               `json:"range"`
	From      string               `json:"from"`
	To        string               `json:"to"`
	Timezone  string               `json:"timezone"`
	Currency  string               `json:"currency"`
	KPI       DashboardKPI         `json:"kpi"`
	Tiers     []DashboardTierCount `json:"tiers"`
	TopEarner []DashboardEarner    `json:"top_earners"`
}

// DashboardKPI 后台核心指标
type DashboardKPI struct {
	OrdersTotal        int64  `json:"orders_total"`
	PendingOrders      int64  `json:"pending_orders"`
	DeliveredOrders    int64  `json:"delivered_orders"`
	CancelledOrders    int64  `json:"cancelled_orders"`
	SalesVolume        string `json:"sales_volume"`
	CommissionDirect   string `json:"commission_direct"`
	CommissionTeam     string `json:"commission_team"`
	CommissionRatio    string `json:"commission_ratio"`
	WaitingWithdrawals int64  `json:"waiting_withdrawals"`
	WaitingAmount      string `json:"waiting_amount"`
	NewMembers         int64  `json:"new_members"`
}

// DashboardTierCount 等级人数
type DashboardTierCount struct {
	Tier  string `json:"tier"`
	Total int64  `json:"total"`
}

// DashboardEarner 佣金排行项
type DashboardEarner struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Tier   string `json:"tier"`
	Earned string `json:"earned"`
}

// DashboardTrendResponse 趋势
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date        string `json:"date"`
	OrdersTotal int64  `json:"orders_total"`
	SalesVolume string `json:"sales_volume"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 后台总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf("dashboard:admin:overview:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		if hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached); cacheErr == nil && hit {
			return &cached, nil
		}
	}

	var (
		overview repository.DashboardOverviewRow
		tiers    []repository.DashboardTierRow
		earners  []repository.DashboardEarnerRow
	)
	group, _ := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		overview, err = s.repo.GetOverview(window.startAt, window.endAt)
		return err
	})
	group.Go(func() (err error) {
		tiers, err = s.repo.GetTierDistribution()
		return err
	})
	group.Go(func() (err error) {
		earners, err = s.repo.GetTopEarners(window.startAt, window.endAt, dashboardTopEarners)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	ratio := decimal.Zero
	if overview.SalesVolume.GreaterThan(decimal.Zero) {
		ratio = overview.CommissionDirect.Add(overview.CommissionTeam).Div(overview.SalesVolume).Mul(decimal.NewFromInt(100))
	}
	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Currency: s.wallet.Currency(),
		KPI: DashboardKPI{
			OrdersTotal:        overview.OrdersTotal,
			PendingOrders:      overview.PendingOrders,
			DeliveredOrders:    overview.DeliveredOrders,
			CancelledOrders:    overview.CancelledOrders,
			SalesVolume:        formatMoneyValue(overview.SalesVolume),
			CommissionDirect:   formatMoneyValue(overview.CommissionDirect),
			CommissionTeam:     formatMoneyValue(overview.CommissionTeam),
			CommissionRatio:    formatMoneyValue(ratio),
			WaitingWithdrawals: overview.WaitingWithdrawals,
			WaitingAmount:      formatMoneyValue(overview.WaitingAmount),
			NewMembers:         overview.NewMembers,
		},
		Tiers:     buildTierCounts(tiers),
		TopEarner: make([]DashboardEarner, 0, len(earners)),
	}
	for _, row := range earners {
		response.TopEarner = append(response.TopEarner, DashboardEarner{
			UserID: row.UserID,
			Email:  row.Email,
			Tier:   row.Tier,
			Earned: formatMoneyValue(row.Earned),
		})
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 按天统计订单数与销售额
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf("dashboard:admin:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		if hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached); cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetOrderTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]repository.DashboardOrderTrendRow, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		row := byDay[day]
		points = append(points, DashboardTrendPoint{
			Date:        day,
			OrdersTotal: row.OrdersTotal,
			SalesVolume: formatMoneyValue(row.SalesVolume),
		})
	}
	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}
	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// buildTierCounts 按等级顺序补齐人数为 0 的等级
func buildTierCounts(rows []repository.DashboardTierRow) []DashboardTierCount {
	byTier := make(map[string]int64, len(rows))
	for _, row := range rows {
		byTier[commission.NormalizeTier(row.Tier).String()] += row.Total
	}
	counts := make([]DashboardTierCount, 0, len(commission.Tiers()))
	for _, tier := range commission.Tiers() {
		counts = append(counts, DashboardTierCount{Tier: tier.String(), Total: byTier[tier.String()]})
	}
	return counts
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value decimal.Decimal) string {
	return value.StringFixed(2)
}

