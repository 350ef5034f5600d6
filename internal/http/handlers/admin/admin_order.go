package admin

import (
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/repository"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 订单状态变更
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=500"`
}

// OrderNoteRequest 附带备注的订单操作
type OrderNoteRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// ListOrders 后台订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	from, err := handlershared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	to, err := handlershared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      handlershared.QueryUint(c, "user_id"),
		Status:      c.Query("status"),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: from,
		CreatedTo:   to,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 后台订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderForAdmin(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 按状态机推进订单
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), currentActor(c), service.OrderStatusInput{
		OrderID: id,
		Status:  req.Status,
		Note:    strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ConfirmOrderPayment 确认收款 pending → to_ship
func (h *Handler) ConfirmOrderPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	note, ok := bindOptionalNote(c)
	if !ok {
		return
	}
	order, err := h.OrderService.ConfirmOrderPayment(c.Request.Context(), currentActor(c), id, note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	note, ok := bindOptionalNote(c)
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), currentActor(c), id, note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// DeleteOrder 删除订单，佣金流水保留
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.OrderService.DeleteOrder(c.Request.Context(), currentActor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

func bindOptionalNote(c *gin.Context) (string, bool) {
	var req OrderNoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return "", false
		}
	}
	return strings.TrimSpace(req.Note), true
}
