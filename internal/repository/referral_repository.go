package repository

import (
	"errors"

	"github.com/synergy-flow/internal/models"

	"gorm.io/gorm"
)

// ReferralRepository 推荐关系数据访问接口
type ReferralRepository interface {
	WithTx(tx *gorm.DB) ReferralRepository

	GetByMember(memberID uint) (*models.ReferralEdge, error)
	Create(edge *models.ReferralEdge) error
	CountChildren(uplineID uint) (int64, error)
	CountTeam(uplineID uint) (int64, error)
	ListTeam(uplineID uint, maxDepth, page, pageSize int) ([]TeamMemberRow, int64, error)
	DeleteByMember(memberID uint) error
}

// GormReferralRepository GORM 推荐关系仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐关系仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// GetByMember 获取会员的上级关系
func (r *GormReferralRepository) GetByMember(memberID uint) (*models.ReferralEdge, error) {
	if memberID == 0 {
		return nil, nil
	}
	var edge models.ReferralEdge
	if err := r.db.Where("member_id = ?", memberID).First(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// Create 创建推荐关系（member_id 唯一）
func (r *GormReferralRepository) Create(edge *models.ReferralEdge) error {
	return r.db.Create(edge).Error
}

// CountChildren 直属下线数
func (r *GormReferralRepository) CountChildren(uplineID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&models.ReferralEdge{}).Where("upline_id = ?", uplineID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountTeam 全部下线数
func (r *GormReferralRepository) CountTeam(uplineID uint) (int64, error) {
	var total int64
	sql := downlineCTE(0) + " SELECT COUNT(*) FROM team"
	if err := r.db.Raw(sql, uplineID).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListTeam 分页列出下线（按深度、ID 排序）
func (r *GormReferralRepository) ListTeam(uplineID uint, maxDepth, page, pageSize int) ([]TeamMemberRow, int64, error) {
	cte := downlineCTE(maxDepth)

	var total int64
	if err := r.db.Raw(cte+" SELECT COUNT(*) FROM team", uplineID).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := cte + " SELECT member_id, depth FROM team ORDER BY depth ASC, member_id ASC"
	args := []interface{}{uplineID}
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, pageSize, (page-1)*pageSize)
	}
	var rows []TeamMemberRow
	if err := r.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DeleteByMember 删除会员作为下级的关系
func (r *GormReferralRepository) DeleteByMember(memberID uint) error {
	return r.db.Where("member_id = ?", memberID).Delete(&models.ReferralEdge{}).Error
}
