package service

import (
	"strings"
	"time"

	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"

	"gorm.io/gorm"
)

// Actor 后台操作人
type Actor struct {
	UserID    uint
	Email     string
	RequestID string
}

// AuditRecordInput 审计记录输入
type AuditRecordInput struct {
	Actor      Actor
	Action     string
	TargetType string
	TargetID   uint
	Detail     models.JSON
}

// AuditService 审计日志服务
type AuditService struct {
	repo repository.AuditLogRepository
}

// NewAuditService 创建审计日志服务
func NewAuditService(repo repository.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record 记录审计日志
func (s *AuditService) Record(input AuditRecordInput) error {
	return s.RecordInTx(nil, input)
}

// RecordInTx 在业务事务内记录审计日志，tx 为空时独立写入
func (s *AuditService) RecordInTx(tx *gorm.DB, input AuditRecordInput) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if input.Actor.UserID == 0 || strings.TrimSpace(input.Action) == "" {
		return nil
	}
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	return repo.Create(&models.AuditLog{
		OperatorID:    input.Actor.UserID,
		OperatorEmail: strings.TrimSpace(input.Actor.Email),
		Action:        strings.TrimSpace(input.Action),
		TargetType:    strings.TrimSpace(input.TargetType),
		TargetID:      input.TargetID,
		RequestID:     strings.TrimSpace(input.Actor.RequestID),
		DetailJSON:    input.Detail,
		CreatedAt:     time.Now(),
	})
}

// List 管理端查询审计日志
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuditLog{}, 0, nil
	}
	return s.repo.List(filter)
}
