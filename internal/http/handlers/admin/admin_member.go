package admin

import (
	"strings"

	"github.com/synergy-flow/internal/constants"
	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/models"
	"github.com/synergy-flow/internal/repository"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdjustWalletRequest 管理端余额调整，amount 为带符号增量
type AdjustWalletRequest struct {
	Amount string `json:"amount" binding:"required"`
	Remark string `json:"remark" binding:"max=255"`
}

// ListMembers 会员列表
func (h *Handler) ListMembers(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Role:     strings.ToLower(strings.TrimSpace(c.Query("role"))),
		Tier:     strings.ToLower(strings.TrimSpace(c.Query("tier"))),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// GetMember 会员详情：资料、等级进度、钱包与团队规模
func (h *Handler) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	dashboard, err := h.DashboardService.GetMemberDashboard(c.Request.Context(), id, true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	user, err := h.UserAuthService.GetUserByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user":      user,
		"dashboard": dashboard,
	})
}

// DeleteMember 删除没有下线的会员
func (h *Handler) DeleteMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.AdminLedgerService.DeleteMember(c.Request.Context(), currentActor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// AdjustMemberWallet 管理员增减会员余额
func (h *Handler) AdjustMemberWallet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdjustWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	delta, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_amount", nil)
		return
	}
	if _, err := h.UserAuthService.GetUserByID(id); err != nil {
		respondServiceError(c, err)
		return
	}
	account, txn, err := h.WalletService.AdminAdjustBalance(service.WalletAdjustInput{
		UserID: id,
		Delta:  models.NewMoneyFromDecimal(delta),
		Remark: req.Remark,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	actor := currentActor(c)
	if err := h.AuditService.Record(service.AuditRecordInput{
		Actor:      actor,
		Action:     constants.AuditActionWalletAdjust,
		TargetType: constants.AuditTargetMember,
		TargetID:   id,
		Detail: models.JSON{
			"delta":   delta.StringFixed(2),
			"balance": account.Balance.String(),
			"remark":  req.Remark,
		},
	}); err != nil {
		logger.Warnw("admin_wallet_adjust_audit_failed", "user_id", id, "error", err)
	}

	response.Success(c, gin.H{
		"account":     account,
		"transaction": txn,
	})
}

// GetMemberWalletTransactions 会员钱包流水
func (h *Handler) GetMemberWalletTransactions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	rows, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   id,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
