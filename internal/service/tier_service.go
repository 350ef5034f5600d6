package service

import (
	"time"

	"github.com/synergy-flow/internal/commission"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TierService 累计销售额与等级维护
// 累计销售额只增不减，等级只升不降。
type TierService struct {
	policy   *commission.Policy
	userRepo repository.UserRepository
}

// NewTierService 创建等级服务
func NewTierService(policy *commission.Policy, userRepo repository.UserRepository) *TierService {
	if policy == nil {
		policy = commission.DefaultPolicy()
	}
	return &TierService{policy: policy, userRepo: userRepo}
}

// Policy 当前规则表
func (s *TierService) Policy() *commission.Policy {
	return s.policy
}

// TierProgress 等级进度
type TierProgress struct {
	Tier             string          `json:"tier"`
	AccumulatedSales decimal.Decimal `json:"accumulated_sales"`
	NextTier         string          `json:"next_tier,omitempty"`
	NextThreshold    decimal.Decimal `json:"next_threshold"`
	Remaining        decimal.Decimal `json:"remaining"`
}

// Progress 计算距离下一等级的差额
func (s *TierService) Progress(user *models.User) TierProgress {
	tier := commission.NormalizeTier(user.Tier)
	sales := user.AccumulatedSales.Decimal
	progress := TierProgress{
		Tier:             tier.String(),
		AccumulatedSales: commission.Round(sales),
		NextThreshold:    decimal.Zero,
		Remaining:        decimal.Zero,
	}
	next, ok := s.policy.NextTier(tier)
	if !ok {
		return progress
	}
	threshold := s.policy.Threshold(next)
	progress.NextTier = next.String()
	progress.NextThreshold = threshold
	if remaining := threshold.Sub(sales); remaining.GreaterThan(decimal.Zero) {
		progress.Remaining = commission.Round(remaining)
	}
	return progress
}

// AccrueSalesInTx 累加销售额并按门槛重算等级，等级提升时返回变更事件
// user 为已加锁的行，调用后其 Tier 与 AccumulatedSales 同步为新值。
func (s *TierService) AccrueSalesInTx(tx *gorm.DB, user *models.User, volume decimal.Decimal, orderID uint, now time.Time) (*TierChangedEvent, error) {
	if user == nil || volume.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	repo := s.userRepo.WithTx(tx)
	before := commission.NormalizeTier(user.Tier)
	sales := user.AccumulatedSales.Decimal.Add(volume)
	after := s.policy.ResolveTier(sales)
	if after.Less(before) {
		after = before
	}

	money := models.NewMoneyFromDecimal(sales)
	if err := repo.UpdateSalesAndTier(user.ID, money, after.String(), now); err != nil {
		return nil, err
	}
	user.AccumulatedSales = money
	user.Tier = after.String()
	user.UpdatedAt = now
	if after == before {
		return nil, nil
	}

	log := &models.TierChangeLog{
		UserID:           user.ID,
		FromTier:         before.String(),
		ToTier:           after.String(),
		AccumulatedSales: money,
		CreatedAt:        now,
	}
	if orderID != 0 {
		id := orderID
		log.OrderID = &id
	}
	if err := repo.CreateTierChangeLog(log); err != nil {
		return nil, err
	}
	return &TierChangedEvent{
		UserID:           user.ID,
		FromTier:         before.String(),
		ToTier:           after.String(),
		AccumulatedSales: money.Decimal,
		OrderID:          orderID,
		OccurredAt:       now,
	}, nil
}

// History 等级变更历史
func (s *TierService) History(userID uint, limit int) ([]models.TierChangeLog, error) {
	return s.userRepo.ListTierChangeLogs(userID, limit)
}
