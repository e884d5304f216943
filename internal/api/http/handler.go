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
	"bytes"
	"context"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"policypulse/internal/orchestrator"
	"policypulse/internal/pipeline/ingest"
	"policypulse/internal/session"
	pkgerrors "policypulse/pkg/errors"
	"policypulse/pkg/metrics"
)

// Handler HTTP 请求处理器
type Handler struct {
	sessions *session.Manager
	orch     *orchestrator.Orchestrator
	indexer  *ingest.Indexer
}

// NewHandler 创建 Handler；indexer 为 nil 时文档上传返回 503
func NewHandler(sessions *session.Manager, orch *orchestrator.Orchestrator, indexer *ingest.Indexer) *Handler {
	return &Handler{sessions: sessions, orch: orch, indexer: indexer}
}

// CreateSession 创建新会话
// POST /api/sessions
func (h *Handler) CreateSession(c context.Context, ctx *app.RequestContext) {
	s, err := h.sessions.Create(c)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusCreated, map[string]string{"session_id": s.ID})
}

// DeleteSession 结束会话并释放全部状态
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c context.Context, ctx *app.RequestContext) {
	if err := h.sessions.Delete(c, ctx.Param("id")); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.Status(consts.StatusNoContent)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat 处理一轮对话
// POST /api/sessions/:id/chat
func (h *Handler) Chat(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}

	var req chatRequest
	if err := ctx.BindJSON(&req); err != nil || req.Message == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	result, err := h.orch.Chat(c, sess, req.Message, nil)
	if err != nil {
		hlog.CtxErrorf(c, "chat turn failed for session %s: %v", sess.ID, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to generate a reply"})
		return
	}
	ctx.JSON(consts.StatusOK, result)
}

// Conversation 返回会话的对话日志
// GET /api/sessions/:id/conversation
func (h *Handler) Conversation(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"turns":      sess.Turns(),
	})
}

type streamingRequest struct {
	Enabled bool `json:"enabled"`
}

// SetStreaming 切换会话的流式开关
// PUT /api/sessions/:id/streaming
func (h *Handler) SetStreaming(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}
	var req streamingRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	sess.SetStreaming(req.Enabled)
	ctx.JSON(consts.StatusOK, map[string]bool{"streaming": req.Enabled})
}

// UploadDocument 上传 PDF 并重建会话的活动文档索引
// POST /api/sessions/:id/documents
func (h *Handler) UploadDocument(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}
	if h.indexer == nil {
		ctx.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "document indexing is unavailable: embedding credentials missing"})
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "cannot open uploaded file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "cannot read uploaded file"})
		return
	}

	text, err := ingest.ExtractPDFText(data)
	if err != nil {
		hlog.CtxWarnf(c, "pdf extraction failed: %v", err)
		ctx.JSON(consts.StatusUnprocessableEntity, map[string]string{"error": "could not extract text from the PDF"})
		return
	}

	doc, err := h.indexer.BuildDocument(c, fileHeader.Filename, text)
	if err != nil {
		hlog.CtxErrorf(c, "document indexing failed: %v", err)
		ctx.JSON(consts.StatusUnprocessableEntity, map[string]string{"error": "document has no usable text content"})
		return
	}

	sess.SetDocument(doc)
	ctx.JSON(consts.StatusCreated, map[string]interface{}{
		"document_id": doc.ID,
		"name":        doc.Name,
		"chunks":      len(doc.Chunks),
	})
}

// ClearDocument 清除会话的活动文档
// DELETE /api/sessions/:id/documents
func (h *Handler) ClearDocument(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}
	sess.SetDocument(nil)
	ctx.Status(consts.StatusNoContent)
}

// Memory 返回会话的记忆摘要
// GET /api/sessions/:id/memory
func (h *Handler) Memory(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"count":     sess.Memory.Count(),
		"summaries": sess.Memory.Summaries(),
	})
}

// ClearMemory 清空会话记忆
// DELETE /api/sessions/:id/memory
func (h *Handler) ClearMemory(c context.Context, ctx *app.RequestContext) {
	sess, ok := h.loadSession(c, ctx)
	if !ok {
		return
	}
	sess.Memory.Clear()
	ctx.Status(consts.StatusNoContent)
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

// Metrics Prometheus 指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4", buf.Bytes())
}

// loadSession 解析路径中的会话 ID；未找到时写好 404 响应并返回 false
func (h *Handler) loadSession(c context.Context, ctx *app.RequestContext) (*session.Session, bool) {
	id := ctx.Param("id")
	sess, err := h.sessions.Get(c, id)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
		} else {
			ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return nil, false
	}
	return sess, true
}
