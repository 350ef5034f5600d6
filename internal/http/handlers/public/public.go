package public

import (
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetTiers 等级规则表（门槛、直推佣金、会员折扣、覆盖佣金、税率）
func (h *Handler) GetTiers(c *gin.Context) {
	policy := h.TierService.Policy()
	response.Success(c, gin.H{
		"tiers":     policy.Rules(),
		"overrides": policy.OverrideTable(),
		"vat_rate":  policy.VATRate(),
		"currency":  h.WalletService.Currency(),
	})
}

// ResolveTier 根据累计销售额计算等级
func (h *Handler) ResolveTier(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("sales"))
	sales, err := decimal.NewFromString(raw)
	if err != nil || sales.IsNegative() {
		respondError(c, response.CodeBadRequest, "error.invalid_amount", nil)
		return
	}
	policy := h.TierService.Policy()
	tier := policy.ResolveTier(sales)
	data := gin.H{
		"sales":         sales,
		"tier":          tier,
		"direct_rate":   policy.DirectRate(tier),
		"discount_rate": policy.DiscountRate(tier),
	}
	if next, ok := policy.NextTier(tier); ok {
		data["next_tier"] = next
		data["remaining"] = policy.Threshold(next).Sub(sales)
	}
	response.Success(c, data)
}

// GetProducts 上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	products, total, err := h.ProductService.ListPublic(strings.TrimSpace(c.Query("search")), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetPublic(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}
