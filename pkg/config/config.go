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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// SecretsConfig 凭证存储配置；provider 为 env/memory/vault，空则 env
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"`
	Config   map[string]string `mapstructure:"config"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
	Timeout string `mapstructure:"timeout"` // 单次请求超时，如 "60s"，空则默认 60s
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
}

// LLMConfig LLM 模型配置；Priority 为 provider 回退顺序，首个可用者胜出
type LLMConfig struct {
	Priority  []string                  `mapstructure:"priority"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// EmbeddingConfig Embedding 模型配置
type EmbeddingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Model     string   `mapstructure:"model"`
	BaseURL   string   `mapstructure:"base_url"`
	Dimension int      `mapstructure:"dimension"`
	APIKeys   []string `mapstructure:"api_keys"` // 按顺序解析的凭证名，首个非空生效
}

// ProviderConfig 单个 LLM Provider 配置
type ProviderConfig struct {
	Model        string   `mapstructure:"model"`
	BaseURL      string   `mapstructure:"base_url"`
	APIKeys      []string `mapstructure:"api_keys"` // 按顺序解析的凭证名，首个非空生效
	MaxNewTokens int      `mapstructure:"max_new_tokens"`
	Temperature  float64  `mapstructure:"temperature"`
}

// MemoryConfig 会话记忆配置
type MemoryConfig struct {
	MaxEntries   int `mapstructure:"max_entries"`    // 摘要条数上限，<=0 默认 10
	ContextSize  int `mapstructure:"context_size"`   // 注入 prompt 的最近摘要条数，<=0 默认 2
	MinWordCount int `mapstructure:"min_word_count"` // 摘要最小词数门槛，<=0 默认 5
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	TopK         int     `mapstructure:"top_k"`         // 相似检索 top-k，<=0 默认 3
	Threshold    float64 `mapstructure:"threshold"`     // 相似度阈值（含边界），<=0 默认 0.1
	MaxPassages  int     `mapstructure:"max_passages"`  // 启发式窗口最多返回的行数，<=0 默认 6
	WindowBefore int     `mapstructure:"window_before"` // 命中行前取行数，缺省 1，显式 0 合法
	WindowAfter  int     `mapstructure:"window_after"`  // 命中行后取行数，缺省 1，显式 0 合法
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitsConfig LLM Provider 限流配置
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	Burst             int     `mapstructure:"burst"`
}

// LoadConfig 从指定路径加载配置文件，环境变量以 POLICYPULSE_ 前缀覆盖
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("api")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("POLICYPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 显式 0 是合法取值（不取上下文行），缺省才是 ±1
	v.SetDefault("retrieval.window_before", 1)
	v.SetDefault("retrieval.window_after", 1)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件存在但读取失败才视为错误；缺文件时用默认值 + 环境变量
		if configPath != "" {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("读取配置文件failed: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置failed: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadAPIConfigWithModel 加载 API 配置并合并 model 配置（configs/model.yaml 可选）
func LoadAPIConfigWithModel() (*Config, error) {
	cfg, err := LoadConfig(filepath.Join("configs", "api.yaml"))
	if err != nil {
		return nil, err
	}
	modelCfg, err := LoadConfig(filepath.Join("configs", "model.yaml"))
	if err == nil && len(modelCfg.Model.LLM.Providers) > 0 {
		cfg.Model = modelCfg.Model
	}
	return cfg, nil
}

// applyDefaults 填充缺省值
func applyDefaults(cfg *Config) {
	if cfg.API.Port <= 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.Timeout == "" {
		cfg.API.Timeout = "60s"
	}
	if cfg.Memory.MaxEntries <= 0 {
		cfg.Memory.MaxEntries = 10
	}
	if cfg.Memory.ContextSize <= 0 {
		cfg.Memory.ContextSize = 2
	}
	if cfg.Memory.MinWordCount <= 0 {
		cfg.Memory.MinWordCount = 5
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.Threshold <= 0 {
		cfg.Retrieval.Threshold = 0.1
	}
	if cfg.Retrieval.MaxPassages <= 0 {
		cfg.Retrieval.MaxPassages = 6
	}
	if cfg.Retrieval.WindowBefore < 0 {
		cfg.Retrieval.WindowBefore = 0
	}
	if cfg.Retrieval.WindowAfter < 0 {
		cfg.Retrieval.WindowAfter = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// ProviderPriority 返回回退顺序；未配置 priority 时按 huggingface → openai → claude
func (c *Config) ProviderPriority() []string {
	if len(c.Model.LLM.Priority) > 0 {
		return c.Model.LLM.Priority
	}
	var out []string
	for _, name := range []string{"huggingface", "openai", "claude"} {
		if _, ok := c.Model.LLM.Providers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
