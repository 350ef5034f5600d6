package public

import (
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/repository"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求，地址为空时使用默认地址
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	AddressID     uint   `json:"address_id"`
	Note          string `json:"note" binding:"max=500"`
}

// Checkout 购物车结算：建单、分佣、累计销售额一个事务完成
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := h.CheckoutService.ProcessCheckout(c.Request.Context(), service.CheckoutInput{
		UserID:        uid,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		AddressID:     req.AddressID,
		Note:          strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// GetMyOrders 我的订单
func (h *Handler) GetMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetMyOrder 订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(orderID, uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
