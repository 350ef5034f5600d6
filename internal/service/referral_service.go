package service

import (
	"errors"
	"strings"
	"time"

	"github.com/synergy-flow/internal/constants"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"gorm.io/gorm"
)

// ReferralService 推荐关系服务
type ReferralService struct {
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
}

// TeamMember 下线成员视图
type TeamMember struct {
	UserID       uint         `json:"user_id"`
	DisplayName  string       `json:"display_name"`
	Email        string       `json:"email"`
	Tier         string       `json:"tier"`
	Sales        models.Money `json:"accumulated_sales"`
	Depth        int          `json:"depth"`
	Relationship string       `json:"relationship"`
	JoinedAt     time.Time    `json:"joined_at"`
}

// NewReferralService 创建推荐关系服务
func NewReferralService(userRepo repository.UserRepository, referralRepo repository.ReferralRepository) *ReferralService {
	return &ReferralService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
	}
}

// LinkReferrer 绑定上级推荐码，只能绑定一次
func (s *ReferralService) LinkReferrer(userID uint, code string) (*models.User, error) {
	var upline *models.User
	err := s.userRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		upline, err = s.LinkReferrerInTx(tx, userID, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("referral_linked", "user_id", userID, "upline_id", upline.ID)
	return upline, nil
}

// LinkReferrerInTx 在已有事务内绑定上级（注册流程复用）
func (s *ReferralService) LinkReferrerInTx(tx *gorm.DB, userID uint, code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if userID == 0 || code == "" {
		return nil, ErrInvalidReferralCode
	}
	userRepo := s.userRepo.WithTx(tx)
	referralRepo := s.referralRepo.WithTx(tx)

	users, err := userRepo.LockByIDs([]uint{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	member := users[0]
	if member.HasReferrer() {
		return nil, ErrReferralAlreadyBound
	}
	if strings.EqualFold(member.ReferralCode, code) {
		return nil, ErrReferralSelf
	}

	upline, err := userRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if upline == nil || upline.Status != constants.UserStatusActive {
		return nil, ErrInvalidReferralCode
	}
	if upline.ID == member.ID {
		return nil, ErrReferralSelf
	}

	ancestors, err := s.chainIDs(referralRepo, upline.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range ancestors {
		if id == member.ID {
			return nil, ErrReferralCycle
		}
	}

	now := time.Now()
	if err := referralRepo.Create(&models.ReferralEdge{
		MemberID:  member.ID,
		UplineID:  upline.ID,
		CreatedAt: now,
	}); err != nil {
		return nil, ErrReferralAlreadyBound
	}
	if err := userRepo.SetUplineReferrerCode(member.ID, upline.ReferralCode, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferralAlreadyBound
		}
		return nil, err
	}
	return upline, nil
}

// ResolveChain 返回从直接上级到根的有序上级列表
func (s *ReferralService) ResolveChain(userID uint) ([]models.User, error) {
	return s.resolveChain(s.userRepo, s.referralRepo, userID)
}

func (s *ReferralService) resolveChain(userRepo repository.UserRepository, referralRepo repository.ReferralRepository, userID uint) ([]models.User, error) {
	ids, err := s.chainIDs(referralRepo, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	users, err := userRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	chain := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := byID[id]; ok {
			chain = append(chain, user)
		}
	}
	return chain, nil
}

// chainIDs 沿推荐边向上遍历；遇到重复节点立即停止，避免脏数据导致死循环
func (s *ReferralService) chainIDs(referralRepo repository.ReferralRepository, userID uint) ([]uint, error) {
	ids := make([]uint, 0, 8)
	visited := map[uint]struct{}{userID: {}}
	current := userID
	for {
		edge, err := referralRepo.GetByMember(current)
		if err != nil {
			return nil, err
		}
		if edge == nil {
			return ids, nil
		}
		if _, seen := visited[edge.UplineID]; seen {
			logger.Warnw("referral_chain_cycle_detected", "user_id", userID, "at", edge.UplineID)
			return ids, nil
		}
		visited[edge.UplineID] = struct{}{}
		ids = append(ids, edge.UplineID)
		current = edge.UplineID
	}
}

// Relationship 由路径长度推导关系：1 为 direct，大于 1 为 indirect，不在下线中返回空
func (s *ReferralService) Relationship(uplineID, memberID uint) (string, error) {
	if uplineID == 0 || memberID == 0 || uplineID == memberID {
		return "", nil
	}
	ids, err := s.chainIDs(s.referralRepo, memberID)
	if err != nil {
		return "", err
	}
	for idx, id := range ids {
		if id == uplineID {
			return relationshipForDepth(idx + 1), nil
		}
	}
	return "", nil
}

func relationshipForDepth(depth int) string {
	switch {
	case depth == 1:
		return constants.RelationshipDirect
	case depth > 1:
		return constants.RelationshipIndirect
	default:
		return ""
	}
}

// ListTeam 分页列出下线
func (s *ReferralService) ListTeam(userID uint, maxDepth, page, pageSize int) ([]TeamMember, int64, error) {
	rows, total, err := s.referralRepo.ListTeam(userID, maxDepth, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []TeamMember{}, total, nil
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MemberID)
	}
	users, err := s.userRepo.ListByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	members := make([]TeamMember, 0, len(rows))
	for _, row := range rows {
		user, ok := byID[row.MemberID]
		if !ok {
			continue
		}
		members = append(members, TeamMember{
			UserID:       user.ID,
			DisplayName:  user.DisplayName,
			Email:        user.Email,
			Tier:         user.Tier,
			Sales:        user.AccumulatedSales,
			Depth:        row.Depth,
			Relationship: relationshipForDepth(row.Depth),
			JoinedAt:     user.CreatedAt,
		})
	}
	return members, total, nil
}

// TeamSize 直属与全部下线人数
func (s *ReferralService) TeamSize(userID uint) (direct int64, total int64, err error) {
	if direct, err = s.referralRepo.CountChildren(userID); err != nil {
		return 0, 0, err
	}
	if total, err = s.referralRepo.CountTeam(userID); err != nil {
		return 0, 0, err
	}
	return direct, total, nil
}
