package public

import (
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressRequest 收货地址请求
type AddressRequest struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	District      string `json:"district"`
	Province      string `json:"province"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

func (r AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		RecipientName: r.RecipientName,
		Phone:         r.Phone,
		Line1:         r.Line1,
		Line2:         r.Line2,
		District:      r.District,
		Province:      r.Province,
		PostalCode:    r.PostalCode,
		IsDefault:     r.IsDefault,
	}
}

// BankAccountRequest 银行账户请求
type BankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required,bank_account"`
	IsDefault     bool   `json:"is_default"`
}

// ListAddresses 收货地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, err := h.MemberProfileService.ListAddresses(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, rows)
}

// CreateAddress 新增收货地址，首个地址自动成为默认
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	address, err := h.MemberProfileService.CreateAddress(uid, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, address)
}

// UpdateAddress 修改收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	address, err := h.MemberProfileService.UpdateAddress(uid, addressID, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.MemberProfileService.DeleteAddress(uid, addressID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListBankAccounts 提现银行账户（账号脱敏）
func (h *Handler) ListBankAccounts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rows, err := h.MemberProfileService.ListBankAccounts(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, rows)
}

// CreateBankAccount 新增提现银行账户
func (h *Handler) CreateBankAccount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req BankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_bank_account", nil)
		return
	}
	account, err := h.MemberProfileService.CreateBankAccount(uid, service.BankAccountInput{
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, account)
}

// DeleteBankAccount 删除提现银行账户
func (h *Handler) DeleteBankAccount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.MemberProfileService.DeleteBankAccount(uid, accountID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
