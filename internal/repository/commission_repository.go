package repository

import (
	"errors"
	"strings"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository 佣金流水数据访问接口
type CommissionRepository interface {
	WithTx(tx *gorm.DB) CommissionRepository

	Create(entry *models.CommissionTransaction) error
	GetByID(id uint) (*models.CommissionTransaction, error)
	GetByIDForUpdate(id uint) (*models.CommissionTransaction, error)
	Update(entry *models.CommissionTransaction) error
	Delete(id uint) error
	DeleteByUser(userID uint) error
	List(filter CommissionListFilter) ([]models.CommissionTransaction, int64, error)
	ListByOrderForUpdate(orderID uint, statuses []string) ([]models.CommissionTransaction, error)
	SumByUser(userID uint, types, statuses []string) (decimal.Decimal, error)
	SumAll(types, statuses []string) (decimal.Decimal, error)
	Totals(userID uint) (CommissionTotalsRow, error)
}

// GormCommissionRepository GORM 佣金流水仓储
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金流水仓储
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Create 写入流水
func (r *GormCommissionRepository) Create(entry *models.CommissionTransaction) error {
	return r.db.Create(entry).Error
}

// GetByID 按 ID 获取
func (r *GormCommissionRepository) GetByID(id uint) (*models.CommissionTransaction, error) {
	return r.first(r.db, id)
}

// GetByIDForUpdate 按 ID 加锁获取
func (r *GormCommissionRepository) GetByIDForUpdate(id uint) (*models.CommissionTransaction, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormCommissionRepository) first(query *gorm.DB, id uint) (*models.CommissionTransaction, error) {
	if id == 0 {
		return nil, nil
	}
	var entry models.CommissionTransaction
	if err := query.Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Update 更新流水
func (r *GormCommissionRepository) Update(entry *models.CommissionTransaction) error {
	return r.db.Save(entry).Error
}

// Delete 物理删除流水
func (r *GormCommissionRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.CommissionTransaction{}).Error
}

// DeleteByUser 删除会员名下全部流水
func (r *GormCommissionRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CommissionTransaction{}).Error
}

// List 分页查询流水
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.CommissionTransaction, int64, error) {
	query := r.db.Model(&models.CommissionTransaction{})
	if filter.UserID != 0 {
		query = query.Where("commission_transactions.user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("commission_transactions.order_id = ?", filter.OrderID)
	}
	if txType := strings.TrimSpace(filter.Type); txType != "" {
		query = query.Where("commission_transactions.type = ?", txType)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("commission_transactions.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, count := buildLikeCondition(r.db, "u.email", "u.display_name", "u.referral_code")
		query = query.Joins("LEFT JOIN users u ON u.id = commission_transactions.user_id").
			Where(condition, repeatLikeArgs("%"+keyword+"%", count)...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("commission_transactions.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("commission_transactions.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.CommissionTransaction
	if err := query.Order("commission_transactions.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByOrderForUpdate 按订单查询并锁定流水
func (r *GormCommissionRepository) ListByOrderForUpdate(orderID uint, statuses []string) ([]models.CommissionTransaction, error) {
	if orderID == 0 {
		return []models.CommissionTransaction{}, nil
	}
	query := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.CommissionTransaction
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumByUser 汇总会员指定类型与状态的金额
func (r *GormCommissionRepository) SumByUser(userID uint, types, statuses []string) (decimal.Decimal, error) {
	if userID == 0 {
		return decimal.Zero, nil
	}
	return r.sum(r.db.Model(&models.CommissionTransaction{}).Where("user_id = ?", userID), types, statuses)
}

// SumAll 汇总全部会员指定类型与状态的金额
func (r *GormCommissionRepository) SumAll(types, statuses []string) (decimal.Decimal, error) {
	return r.sum(r.db.Model(&models.CommissionTransaction{}), types, statuses)
}

func (r *GormCommissionRepository) sum(query *gorm.DB, types, statuses []string) (decimal.Decimal, error) {
	if len(types) > 0 {
		query = query.Where("type IN ?", types)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// Totals 一次查询会员的佣金汇总
func (r *GormCommissionRepository) Totals(userID uint) (CommissionTotalsRow, error) {
	var row struct {
		Earned    decimal.Decimal `gorm:"column:earned"`
		Pending   decimal.Decimal `gorm:"column:pending"`
		Waiting   decimal.Decimal `gorm:"column:waiting"`
		Withdrawn decimal.Decimal `gorm:"column:withdrawn"`
	}
	earning := []string{constants.CommissionTypeDirect, constants.CommissionTypeTeam}
	err := r.db.Model(&models.CommissionTransaction{}).
		Where("user_id = ?", userID).
		Select(`
COALESCE(SUM(CASE WHEN type IN ? AND status IN ? THEN amount ELSE 0 END), 0) AS earned,
COALESCE(SUM(CASE WHEN type IN ? AND status = ? THEN amount ELSE 0 END), 0) AS pending,
COALESCE(SUM(CASE WHEN type = ? AND status = ? THEN -amount ELSE 0 END), 0) AS waiting,
COALESCE(SUM(CASE WHEN type = ? AND status = ? THEN -amount ELSE 0 END), 0) AS withdrawn`,
			earning, []string{constants.CommissionStatusPaid, constants.CommissionStatusCompleted},
			earning, constants.CommissionStatusPending,
			constants.CommissionTypeWithdrawal, constants.CommissionStatusWaiting,
			constants.CommissionTypeWithdrawal, constants.CommissionStatusCompleted,
		).
		Scan(&row).Error
	if err != nil {
		return CommissionTotalsRow{}, err
	}
	return CommissionTotalsRow{
		Earned:             row.Earned.Round(2),
		Pending:            row.Pending.Round(2),
		WaitingWithdrawals: row.Waiting.Round(2),
		Withdrawn:          row.Withdrawn.Round(2),
	}, nil
}
