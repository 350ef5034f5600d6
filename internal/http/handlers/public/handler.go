package public

import "github.com/synergy-flow/internal/provider"

// Handler 前台/会员接口处理器入口
// 说明：该处理器仅用于公开与会员侧 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
