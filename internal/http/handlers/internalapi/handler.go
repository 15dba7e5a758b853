package internalapi

import "github.com/wasl-next/internal/provider"

// Handler 内部集成接口处理器入口
// 说明：仅供主站后端通过内部令牌调用。
type Handler struct {
	*provider.Container
}

// New 创建内部接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
