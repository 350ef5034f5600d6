package admin

import (
	"context"
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

type dashboardQuery struct {
	Range        string `form:"range"`
	From         string `form:"from"`
	To           string `form:"to"`
	Timezone     string `form:"tz"`
	ForceRefresh bool   `form:"force_refresh"`
}

// GetDashboardOverview 销售额、佣金与提现汇总
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	serveDashboard(c, h.DashboardService.GetOverview)
}

// GetDashboardTrends 按天的趋势数据
func (h *Handler) GetDashboardTrends(c *gin.Context) {
	serveDashboard(c, h.DashboardService.GetTrends)
}

func serveDashboard[T any](c *gin.Context, fetch func(context.Context, service.DashboardQueryInput) (T, error)) {
	input, err := parseDashboardQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.dashboard_range_invalid", err)
		return
	}
	data, err := fetch(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, data)
}

func parseDashboardQuery(c *gin.Context) (service.DashboardQueryInput, error) {
	q := dashboardQuery{Range: "7d"}
	if err := c.ShouldBindQuery(&q); err != nil {
		return service.DashboardQueryInput{}, err
	}
	input := service.DashboardQueryInput{
		Range:        strings.TrimSpace(q.Range),
		Timezone:     strings.TrimSpace(q.Timezone),
		ForceRefresh: q.ForceRefresh,
	}
	var err error
	if input.From, err = handlershared.ParseTimeNullable(q.From); err != nil {
		return service.DashboardQueryInput{}, err
	}
	if input.To, err = handlershared.ParseTimeNullable(q.To); err != nil {
		return service.DashboardQueryInput{}, err
	}
	return input, nil
}
