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

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"policypulse/internal/memory"
	"policypulse/internal/pipeline/ingest"
)

// Role 对话角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn 一条对话记录；追加后不可变
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Rationale string    `json:"rationale,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session 会话：对话日志、记忆、活动文档索引、流式开关的唯一属主。
// 对话日志只追加；文档整体替换；一切状态随会话清除或进程结束消失。
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Memory *memory.Manager

	turns     []Turn
	document  *ingest.Document
	streaming bool

	// turnMu 串行化整轮处理：一轮完整结束前下一轮不开始
	turnMu sync.Mutex
	// mu 保护字段读写
	mu sync.RWMutex
}

// New 创建会话；id 为空时自动分配
func New(id string, mem *memory.Manager) *Session {
	now := time.Now()
	if id == "" {
		id = "session-" + uuid.New().String()
	}
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Memory:    mem,
	}
}

// AcquireTurn 获取整轮处理的排他权；ReleaseTurn 释放
func (s *Session) AcquireTurn() { s.turnMu.Lock() }

// ReleaseTurn 释放整轮处理的排他权
func (s *Session) ReleaseTurn() { s.turnMu.Unlock() }

// AppendTurn 追加一条对话记录
func (s *Session) AppendTurn(role Role, content, rationale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.turns = append(s.turns, Turn{
		Role:      role,
		Content:   content,
		Rationale: rationale,
		Timestamp: s.UpdatedAt,
	})
}

// Turns 返回对话日志副本
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// SetDocument 整体替换活动文档；传 nil 即清除
func (s *Session) SetDocument(doc *ingest.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.document = doc
}

// Document 返回当前活动文档，无文档返回 nil
func (s *Session) Document() *ingest.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// SetStreaming 设置流式开关
func (s *Session) SetStreaming(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = on
}

// Streaming 返回流式开关状态
func (s *Session) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}
