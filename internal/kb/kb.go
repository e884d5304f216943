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

package kb

import (
	"context"
	"fmt"

	"policypulse/internal/model/embedding"
	"policypulse/internal/pipeline/ingest"
	"policypulse/internal/storage/vector"
)

// sentences 固定知识库：保单领域的事实句，随进程存活，不随会话重建
var sentences = []string{
	"A policy number uniquely identifies an insurance contract and is required for all servicing requests.",
	"The grace period for premium payment is usually 30 days from the due date for annual and semi-annual modes.",
	"If a premium is not paid within the grace period, the policy lapses and coverage stops.",
	"A lapsed policy can typically be revived within two to five years by paying outstanding premiums with interest.",
	"The nominee is the person who receives the policy benefit if the insured dies during the policy term.",
	"The proposer is the person who applies for the policy and pays the premiums; the insured is the person whose life or health is covered.",
	"Sum assured is the guaranteed amount payable on the insured event; sum insured is the maximum reimbursement under an indemnity policy.",
	"To file a claim you generally need the policy number, a government-issued ID, and documents supporting the claim event.",
	"Cashless hospitalization is available only at network hospitals empanelled with the insurer or its TPA.",
	"Pre-existing diseases are usually covered after a waiting period of two to four years in health insurance.",
	"Premiums for health insurance policies qualify for tax deduction under Section 80D of the Income Tax Act.",
	"A free-look period of 15 to 30 days lets the policyholder return a new policy and get a refund of premium.",
	"Surrender value is payable on life insurance policies only after premiums have been paid for a minimum number of years.",
	"An endorsement is a written amendment to the policy used to change details like address, nominee, or coverage.",
	"Claims can be tracked online using the policy number and claim reference number issued at registration.",
}

// Sentences 返回知识库句子（只读副本）
func Sentences() []string {
	out := make([]string, len(sentences))
	copy(out, sentences)
	return out
}

// KnowledgeBase 固定 KB 句子与一次性构建的向量索引
type KnowledgeBase struct {
	sentences []string
	index     *vector.FlatIndex
	indexer   *ingest.Indexer
}

// New 构建知识库索引；每进程构建一次，不随查询重建
func New(ctx context.Context, embedder embedding.Embedder) (*KnowledgeBase, error) {
	return NewWithSentences(ctx, embedder, sentences)
}

// NewWithSentences 用给定句子构建知识库（测试用）
func NewWithSentences(ctx context.Context, embedder embedding.Embedder, list []string) (*KnowledgeBase, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("知识库为空")
	}
	ix := ingest.NewIndexer(embedder)
	idx, err := ix.BuildIndex(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("构建知识库索引failed: %w", err)
	}
	owned := make([]string, len(list))
	copy(owned, list)
	return &KnowledgeBase{sentences: owned, index: idx, indexer: ix}, nil
}

// Search 返回与 query 最近的 k 条 KB 句子；KB 路径不做阈值过滤，总是返回 k 条
func (k *KnowledgeBase) Search(ctx context.Context, query string, topK int) ([]string, error) {
	return k.indexer.QueryIndex(ctx, k.index, k.sentences, query, topK)
}

// Len 返回知识库句子数
func (k *KnowledgeBase) Len() int {
	return len(k.sentences)
}
