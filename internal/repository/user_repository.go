package repository

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/synergy-flow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository

	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByReferralCode(code string) (*models.User, error)
	ListByIDs(ids []uint) ([]models.User, error)
	LockByIDs(ids []uint) ([]models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateSalesAndTier(id uint, sales models.Money, tier string, updatedAt time.Time) error
	SetUplineReferrerCode(id uint, code string, updatedAt time.Time) error
	List(filter UserListFilter) ([]models.User, int64, error)
	Delete(id uint) error
	CreateTierChangeLog(log *models.TierChangeLog) error
	ListTierChangeLogs(userID uint, limit int) ([]models.TierChangeLog, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first(r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))))
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id = ?", id))
}

// GetByReferralCode 根据推荐码获取用户
func (r *GormUserRepository) GetByReferralCode(code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	return r.first(r.db.Where("referral_code = ?", code))
}

func (r *GormUserRepository) first(query *gorm.DB) (*models.User, error) {
	var user models.User
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// LockByIDs 按 ID 升序逐行加锁读取用户，保证并发结算的加锁顺序一致
func (r *GormUserRepository) LockByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	sorted := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	users := make([]models.User, 0, len(sorted))
	for _, id := range sorted {
		var user models.User
		if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateSalesAndTier 写入累计销售额与等级
func (r *GormUserRepository) UpdateSalesAndTier(id uint, sales models.Money, tier string, updatedAt time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"accumulated_sales": sales,
		"tier":              tier,
		"updated_at":        updatedAt,
	}).Error
}

// SetUplineReferrerCode 仅在尚未绑定时写入上级推荐码，返回 gorm.ErrRecordNotFound 表示已绑定
func (r *GormUserRepository) SetUplineReferrerCode(id uint, code string, updatedAt time.Time) error {
	result := r.db.Model(&models.User{}).
		Where("id = ? AND upline_referrer_code = ?", id, "").
		Updates(map[string]interface{}{
			"upline_referrer_code": code,
			"updated_at":           updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, count := buildLikeCondition(r.db, "email", "display_name", "referral_code")
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", count)...)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Tier != "" {
		query = query.Where("tier = ?", filter.Tier)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Delete 物理删除用户
func (r *GormUserRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.User{}).Error
}

// CreateTierChangeLog 写入等级变更记录
func (r *GormUserRepository) CreateTierChangeLog(log *models.TierChangeLog) error {
	return r.db.Create(log).Error
}

// ListTierChangeLogs 最近的等级变更记录
func (r *GormUserRepository) ListTierChangeLogs(userID uint, limit int) ([]models.TierChangeLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.TierChangeLog
	if err := r.db.Where("user_id = ?", userID).Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
