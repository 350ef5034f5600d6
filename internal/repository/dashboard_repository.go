package repository

import (
	"fmt"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetTierDistribution() ([]DashboardTierRow, error)
	GetTopEarners(startAt, endAt time.Time, limit int) ([]DashboardEarnerRow, error)
}

// DashboardOverviewRow 后台总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal        int64
	PendingOrders      int64
	DeliveredOrders    int64
	CancelledOrders    int64
	SalesVolume        decimal.Decimal
	CommissionDirect   decimal.Decimal
	CommissionTeam     decimal.Decimal
	WaitingWithdrawals int64
	WaitingAmount      decimal.Decimal
	NewMembers         int64
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day         string
	OrdersTotal int64
	SalesVolume decimal.Decimal
}

// DashboardTierRow 等级人数分布
type DashboardTierRow struct {
	Tier  string
	Total int64
}

// DashboardEarnerRow 佣金排行原始行
type DashboardEarnerRow struct {
	UserID uint
	Email  string
	Tier   string
	Earned decimal.Decimal
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func activeOrderStatuses() []string {
	return []string{
		constants.OrderStatusPending,
		constants.OrderStatusToShip,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	}
}

func earningStatuses() []string {
	return []string{constants.CommissionStatusPaid, constants.CommissionStatusCompleted}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusPending).Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusCancelled).Count(&result.CancelledOrders).Error; err != nil {
		return result, err
	}

	var volume sumRow
	if err := orderBase().
		Where("status IN ?", activeOrderStatuses()).
		Select("COALESCE(SUM(sales_volume), 0) AS total").
		Scan(&volume).Error; err != nil {
		return result, err
	}
	result.SalesVolume = volume.Total

	commissionSum := func(commissionType string) (decimal.Decimal, error) {
		var row sumRow
		err := r.db.Model(&models.CommissionTransaction{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt).
			Where("type = ? AND status IN ?", commissionType, earningStatuses()).
			Select("COALESCE(SUM(amount), 0) AS total").
			Scan(&row).Error
		return row.Total, err
	}
	var err error
	if result.CommissionDirect, err = commissionSum(constants.CommissionTypeDirect); err != nil {
		return result, err
	}
	if result.CommissionTeam, err = commissionSum(constants.CommissionTypeTeam); err != nil {
		return result, err
	}

	waitingBase := func() *gorm.DB {
		return r.db.Model(&models.CommissionTransaction{}).
			Where("type = ? AND status = ?", constants.CommissionTypeWithdrawal, constants.CommissionStatusWaiting)
	}
	if err := waitingBase().Count(&result.WaitingWithdrawals).Error; err != nil {
		return result, err
	}
	var waiting sumRow
	if err := waitingBase().Select("COALESCE(SUM(-amount), 0) AS total").Scan(&waiting).Error; err != nil {
		return result, err
	}
	result.WaitingAmount = waiting.Total

	if err := r.db.Model(&models.User{}).
		Where("role = ? AND created_at >= ? AND created_at < ?", constants.UserRoleMember, startAt, endAt).
		Count(&result.NewMembers).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetOrderTrends 获取按天聚合的订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	dayExpr := "CAST(date(created_at) AS TEXT)"
	rows := make([]DashboardOrderTrendRow, 0)
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as orders_total, COALESCE(SUM(sales_volume), 0) as sales_volume", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, activeOrderStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTierDistribution 各等级会员人数
func (r *GormDashboardRepository) GetTierDistribution() ([]DashboardTierRow, error) {
	rows := make([]DashboardTierRow, 0)
	if err := r.db.Model(&models.User{}).
		Select("tier, COUNT(*) as total").
		Where("role = ?", constants.UserRoleMember).
		Group("tier").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopEarners 佣金收入排行
func (r *GormDashboardRepository) GetTopEarners(startAt, endAt time.Time, limit int) ([]DashboardEarnerRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardEarnerRow, 0)
	if err := r.db.Model(&models.CommissionTransaction{}).
		Select(`
			commission_transactions.user_id as user_id,
			users.email as email,
			users.tier as tier,
			COALESCE(SUM(commission_transactions.amount), 0) as earned
		`).
		Joins("JOIN users ON users.id = commission_transactions.user_id").
		Where("commission_transactions.created_at >= ? AND commission_transactions.created_at < ?", startAt, endAt).
		Where("commission_transactions.type IN ? AND commission_transactions.status IN ?",
			[]string{constants.CommissionTypeDirect, constants.CommissionTypeTeam}, earningStatuses()).
		Group("commission_transactions.user_id, users.email, users.tier").
		Order("earned DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
