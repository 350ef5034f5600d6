package public

import (
	"strings"

	"github.com/synergy-flow/internal/constants"
	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/repository"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WithdrawalRequest 提现申请
type WithdrawalRequest struct {
	Amount        string `json:"amount" binding:"required"`
	BankAccountID uint   `json:"bank_account_id" binding:"required"`
}

// GetMyWallet 获取当前会员钱包
func (h *Handler) GetMyWallet(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccount(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, account)
}

// GetMyWalletTransactions 获取当前会员钱包流水
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	transactions, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}

// GetMyCommissions 佣金与提现账本
func (h *Handler) GetMyCommissions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	rows, total, err := h.DashboardService.ListLedger(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Type:     strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetMyWithdrawals 提现记录
func (h *Handler) GetMyWithdrawals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	rows, total, err := h.WithdrawalService.ListWithdrawals(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Type:     constants.CommissionTypeWithdrawal,
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// RequestWithdrawal 申请提现，金额立即从钱包预扣
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_amount", nil)
		return
	}
	entry, err := h.WithdrawalService.RequestWithdrawal(c.Request.Context(), service.WithdrawalRequestInput{
		UserID:        uid,
		Amount:        amount,
		BankAccountID: req.BankAccountID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}
