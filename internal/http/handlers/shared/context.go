package shared

import (
	"github.com/synergy-flow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey 鉴权中间件写入的会员 ID
const UserIDKey = "user_id"

// CurrentUserID 读取当前登录会员 ID，缺失或类型异常时直接写回错误响应
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok {
		RespondError(c, response.CodeInternal, "error.user_id_type_invalid", nil)
		return 0, false
	}
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, "error.user_id_invalid", nil)
		return 0, false
	}
	return id, true
}
