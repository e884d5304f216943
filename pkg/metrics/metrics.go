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

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		ProviderCallTotal, ProviderFallbackTotal,
		RetrievalTotal, MemoryEvictionTotal, MemoryStoredTotal,
		TurnDuration, TurnRejectedTotal,
	)
}

// ProviderCallTotal LLM Provider 调用总数（按 provider 与结果）
var ProviderCallTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "policypulse_provider_call_total",
		Help: "LLM Provider 调用总数",
	},
	[]string{"provider", "result"}, // success | retryable | fatal
)

// ProviderFallbackTotal 回退到下一 Provider 的次数
var ProviderFallbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "policypulse_provider_fallback_total",
		Help: "Provider 回退次数",
	},
	[]string{"from"},
)

// RetrievalTotal 检索结果来源计数
var RetrievalTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "policypulse_retrieval_total",
		Help: "检索结果来源计数",
	},
	[]string{"source"}, // document_heuristic | document_similarity | knowledge_base | none
)

// MemoryEvictionTotal 记忆 FIFO 淘汰次数
var MemoryEvictionTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "policypulse_memory_eviction_total",
		Help: "记忆 FIFO 淘汰次数",
	},
)

// MemoryStoredTotal 记忆摘要写入次数
var MemoryStoredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "policypulse_memory_stored_total",
		Help: "记忆摘要写入次数",
	},
)

// TurnDuration 单轮对话耗时（秒）
var TurnDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "policypulse_turn_duration_seconds",
		Help:    "单轮对话耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// TurnRejectedTotal 话题过滤拒答次数
var TurnRejectedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "policypulse_turn_rejected_total",
		Help: "话题过滤拒答次数",
	},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 暴露 /metrics）
func WritePrometheus(w io.Writer) error {
	mfs, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
