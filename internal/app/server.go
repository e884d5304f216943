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

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"

	apihttp "policypulse/internal/api/http"
	"policypulse/internal/api/http/middleware"
)

// Server HTTP 服务：Bootstrap 组件 + Hertz server
type Server struct {
	boot  *Bootstrap
	hertz *server.Hertz
}

// NewServer 装配 HTTP 服务
func NewServer(boot *Bootstrap) *Server {
	setupHertzLogger(boot)

	handler := apihttp.NewHandler(boot.Sessions, boot.Orchestrator, boot.Indexer)
	router := apihttp.NewRouter(handler, middleware.NewMiddleware())
	router.SetMetricsEnabled(boot.Config.Monitoring.Enabled)

	addr := fmt.Sprintf("%s:%d", boot.Config.API.Host, boot.Config.API.Port)
	return &Server{boot: boot, hertz: router.Build(addr)}
}

// Run 阻塞运行直到出错或 Shutdown
func (s *Server) Run() error {
	return s.hertz.Run()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hertz.Shutdown(ctx)
}

// setupHertzLogger 将 Hertz 框架日志对齐到 slog 配置
func setupHertzLogger(boot *Bootstrap) {
	levelVar := &slog.LevelVar{}
	switch boot.Config.Log.Level {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(os.Stdout),
		hertzslog.WithLevel(levelVar),
	))
}
