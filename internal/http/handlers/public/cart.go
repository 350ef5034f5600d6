package public

import (
	"github.com/synergy-flow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpsertCartItemRequest 购物车项写入请求，数量为覆盖值
type UpsertCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// ApplyCouponRequest 使用优惠券请求
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart 购物车与价格明细
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.GetCart(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// GetCartTotals 只返回价格明细
func (h *Handler) GetCartTotals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	totals, err := h.CartService.GetCartTotals(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, totals)
}

// UpsertCartItem 加入或修改购物车商品数量
func (h *Handler) UpsertCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpsertCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	view, err := h.CartService.UpsertItem(uid, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// DeleteCartItem 移除购物车商品
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}
	view, err := h.CartService.RemoveItem(uid, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ApplyCoupon 使用优惠券
func (h *Handler) ApplyCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	view, err := h.CartService.ApplyCoupon(uid, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveCoupon 取消优惠券
func (h *Handler) RemoveCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.RemoveCoupon(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}
