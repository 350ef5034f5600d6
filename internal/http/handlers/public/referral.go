package public

import (
	"strconv"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// LinkReferrerRequest 绑定上级请求
type LinkReferrerRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

// LinkReferrer 绑定上级推荐人，每个会员只能绑定一次
func (h *Handler) LinkReferrer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req LinkReferrerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	upline, err := h.ReferralService.LinkReferrer(uid, req.ReferralCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"upline_id":            upline.ID,
		"upline_display_name":  upline.DisplayName,
		"upline_referrer_code": upline.ReferralCode,
		"upline_tier":          upline.Tier,
	})
}

// GetReferralChain 自下而上的上级链
func (h *Handler) GetReferralChain(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	chain, err := h.ReferralService.ResolveChain(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	items := make([]gin.H, 0, len(chain))
	for i, member := range chain {
		items = append(items, gin.H{
			"level":         i + 1,
			"user_id":       member.ID,
			"display_name":  member.DisplayName,
			"referral_code": member.ReferralCode,
			"tier":          member.Tier,
		})
	}
	response.Success(c, items)
}

// GetReferralTeam 下线列表，depth 限制最大层级
func (h *Handler) GetReferralTeam(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))
	if depth < 0 {
		depth = 0
	}
	members, total, err := h.ReferralService.ListTeam(uid, depth, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, members, response.BuildPagination(page, pageSize, total))
}

// GetMyDashboard 会员首页，refresh=1 跳过缓存
func (h *Handler) GetMyDashboard(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	force := c.Query("refresh") == "1" || c.Query("refresh") == "true"
	dashboard, err := h.DashboardService.GetMemberDashboard(c.Request.Context(), uid, force)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, dashboard)
}
