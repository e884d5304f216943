// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"policypulse/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	metricsOn  bool
}

// NewRouter 创建路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: mw}
}

// SetMetricsEnabled 开关 /metrics 端点
func (r *Router) SetMetricsEnabled(on bool) {
	r.metricsOn = on
}

// Build 构建 Hertz server 并注册路由
func (r *Router) Build(addr string) *server.Hertz {
	h := server.Default(server.WithHostPorts(addr))

	api := h.Group("/api", r.middleware.CORS())

	api.GET("/health", r.handler.HealthCheck)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", r.handler.CreateSession)
		sessions.DELETE("/:id", r.handler.DeleteSession)
		sessions.POST("/:id/chat", r.handler.Chat)
		sessions.GET("/:id/conversation", r.handler.Conversation)
		sessions.PUT("/:id/streaming", r.handler.SetStreaming)
		sessions.POST("/:id/documents", r.handler.UploadDocument)
		sessions.DELETE("/:id/documents", r.handler.ClearDocument)
		sessions.GET("/:id/memory", r.handler.Memory)
		sessions.DELETE("/:id/memory", r.handler.ClearMemory)
	}

	if r.metricsOn {
		h.GET("/metrics", r.handler.Metrics)
	}

	return h
}
