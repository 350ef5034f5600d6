package admin

import (
	"errors"

	"github.com/synergy-flow/internal/authz"
	handlershared "github.com/synergy-flow/internal/http/handlers/shared"
	"github.com/synergy-flow/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// respondServiceError 业务层错误统一映射，见 shared 包
func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, response.CodeBadRequest, "error.bad_request", err)
}

type errorMapping struct {
	target error
	code   int
	key    string
}

// 按顺序匹配，第一个命中的生效
var authzErrorMappings = []errorMapping{
	{authz.ErrRoleBuiltin, response.CodeForbidden, "error.role_builtin"},
	{authz.ErrRoleNotFound, response.CodeNotFound, "error.role_not_found"},
	{authz.ErrCapabilityUnknown, response.CodeBadRequest, "error.capability_unknown"},
	{authz.ErrRoleRequired, response.CodeBadRequest, "error.role_invalid"},
	{authz.ErrRoleReserved, response.CodeBadRequest, "error.role_invalid"},
	{authz.ErrActionRequired, response.CodeBadRequest, "error.role_invalid"},
	{authz.ErrUnavailable, response.CodeInternal, "error.internal"},
}

func respondAuthzError(c *gin.Context, err error) {
	for _, m := range authzErrorMappings {
		if errors.Is(err, m.target) {
			respondError(c, m.code, m.key, err)
			return
		}
	}
	respondError(c, response.CodeInternal, "error.internal", err)
}
