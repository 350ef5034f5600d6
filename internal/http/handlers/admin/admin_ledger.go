package admin

import (
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/repository"

	"github.com/gin-gonic/gin"
)

// RejectWithdrawalRequest 驳回提现请求
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListWithdrawals 提现审核列表，默认只看 waiting
func (h *Handler) ListWithdrawals(c *gin.Context) {
	filter, err := parseCommissionFilter(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	if _, set := c.GetQuery("status"); !set {
		filter.Status = "waiting"
	}
	rows, total, err := h.WithdrawalService.ListWithdrawals(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// ApproveWithdrawal 审核通过：waiting → completed，钱包不再变动
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.WithdrawalService.ApproveWithdrawal(c.Request.Context(), currentActor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}

// RejectWithdrawal 驳回：记录原因，状态保持 waiting
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	entry, err := h.WithdrawalService.RejectWithdrawal(c.Request.Context(), currentActor(c), id, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}

// ListTransactions 全量佣金账本
func (h *Handler) ListTransactions(c *gin.Context) {
	filter, err := parseCommissionFilter(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	rows, total, err := h.AdminLedgerService.ListTransactions(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// DeleteTransaction 删除流水；waiting 提现按配置退回钱包
func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor := currentActor(c)
	result, err := h.AdminLedgerService.DeleteTransaction(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	logger.Infow("admin_transaction_deleted",
		"operator_id", actor.UserID,
		"transaction_id", id,
		"refunded", result.Refunded,
	)
	response.Success(c, result)
}

func parseCommissionFilter(c *gin.Context) (repository.CommissionListFilter, error) {
	page, pageSize := handlershared.QueryPagination(c)
	from, err := handlershared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		return repository.CommissionListFilter{}, err
	}
	to, err := handlershared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		return repository.CommissionListFilter{}, err
	}
	return repository.CommissionListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      handlershared.QueryUint(c, "user_id"),
		OrderID:     handlershared.QueryUint(c, "order_id"),
		Type:        strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Status:      strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		CreatedFrom: from,
		CreatedTo:   to,
	}, nil
}
