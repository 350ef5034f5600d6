package admin

import (
	"strings"

	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"
	"github.com/synergy-flow/internal/service"

	"github.com/gin-gonic/gin"
)

func getOperatorID(c *gin.Context) (uint, bool) {
	return handlershared.CurrentUserID(c)
}

// currentActor 审计用的操作人快照
func currentActor(c *gin.Context) service.Actor {
	actor := service.Actor{RequestID: contextString(c, "request_id")}
	if value, exists := c.Get("user_id"); exists {
		if id, ok := value.(uint); ok {
			actor.UserID = id
		}
	}
	actor.Email = contextString(c, "user_email")
	return actor
}

func contextString(c *gin.Context, key string) string {
	value, exists := c.Get(key)
	if !exists {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func isSuperOperator(c *gin.Context) bool {
	value, exists := c.Get("user_is_super")
	if !exists {
		return false
	}
	flag, ok := value.(bool)
	return ok && flag
}

func parseIDParam(c *gin.Context, key string) (uint, bool) {
	id, ok := handlershared.ParsePathUint(c, key)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
	}
	return id, ok
}
