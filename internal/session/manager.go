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
	"context"

	"policypulse/internal/memory"
	pkgerrors "policypulse/pkg/errors"
)

// MemoryFactory 为新会话构造其专属的记忆管理器
type MemoryFactory func() *memory.Manager

// Manager 管理会话生命周期；每个会话持有独立的记忆管理器
type Manager struct {
	store     Store
	newMemory MemoryFactory
}

// NewManager 创建会话管理器
func NewManager(store Store, newMemory MemoryFactory) *Manager {
	return &Manager{store: store, newMemory: newMemory}
}

// Create 创建新会话
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := New("", m.newMemory())
	if err := m.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get 按 ID 获取会话；不存在返回 ErrNotFound
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "session %s", id)
	}
	return s, nil
}

// Delete 结束会话并释放其全部状态
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
