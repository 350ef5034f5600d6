package admin

import (
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
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
	rows, total, err := h.AuditService.List(repository.AuditLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		OperatorID:  handlershared.QueryUint(c, "operator_id"),
		Action:      strings.TrimSpace(c.Query("action")),
		TargetType:  strings.TrimSpace(c.Query("target_type")),
		TargetID:    handlershared.QueryUint(c, "target_id"),
		CreatedFrom: from,
		CreatedTo:   to,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
