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

// Package filter 话题相关性与安全性判定。
// 判定是纯本地的关键词匹配，不产生任何网络调用，
// 因此可以放在每轮编排的最前面做零成本短路。
package filter

import (
	"fmt"
	"strings"
)

// bfsiKeywords BFSI（银行/金融/保险）话题关键词，大小写不敏感的子串匹配
var bfsiKeywords = []string{
	"insurance", "policy", "premium", "claim", "coverage", "beneficiary", "sum insured",
	"proposer", "insured", "nominee", "renewal", "endorsement", "rider", "deductible",
	"agent", "broker", "underwriting", "settlement", "grace period", "maturity", "surrender",
	"ulip", "term plan", "health", "life", "auto", "motor", "fire", "marine", "travel",
	"customer code", "policy number", "plan", "hospitalization", "network hospital", "cashless",
	"invoice", "receipt", "payment", "sum assured", "proposer name", "insured name",
	"customer name", "policyholder", "member name",
}

// unsafeWords 不安全词屏蔽表
var unsafeWords = []string{
	"kill", "suicide", "hack", "bomb", "terrorist", "attack", "murder", "assassinate",
	"explosive", "weapon", "gun", "shoot", "bombing", "terrorism", "violence", "harm",
	"hurt", "injury", "death", "die", "dead", "poison", "drug", "illegal", "crime",
	"criminal", "fraud", "scam", "phishing", "malware", "virus", "spam", "hate",
	"discrimination", "racist", "sexist", "abuse", "harassment", "threat", "blackmail",
	"extortion", "bribe", "corruption", "money laundering", "terrorist financing",
}

// harmfulPatterns 有害指令模式
var harmfulPatterns = []string{
	"how to hack", "how to kill", "how to commit suicide",
	"how to make bomb", "how to attack", "how to harm",
	"instructions for", "tutorial on", "guide to",
}

// minRelevanceScore 判定为 BFSI 相关所需的最少关键词命中数
const minRelevanceScore = 2

// IsBFSIQuery 返回 query 是否命中任一 BFSI 关键词
func IsBFSIQuery(query string) bool {
	ql := strings.ToLower(query)
	for _, kw := range bfsiKeywords {
		if strings.Contains(ql, kw) {
			return true
		}
	}
	return false
}

// SafetyResult 安全检查结果
type SafetyResult struct {
	Unsafe        bool
	Reason        string
	BFSIRelevance bool
	BFSIScore     int
}

// SafetyCheck 对用户输入与模型回复做不安全词与有害模式检查，
// 并统计 BFSI 关键词命中数给出相关性判定
func SafetyCheck(userInput, responseText string) SafetyResult {
	inputLower := strings.ToLower(userInput)
	responseLower := strings.ToLower(responseText)
	combined := inputLower + " " + responseLower

	var result SafetyResult

	for _, w := range unsafeWords {
		if strings.Contains(inputLower, w) || strings.Contains(responseLower, w) {
			result.Unsafe = true
			result.Reason = fmt.Sprintf("unsafe content detected: %q", w)
			break
		}
	}

	for _, kw := range bfsiKeywords {
		if strings.Contains(combined, kw) {
			result.BFSIScore++
		}
	}
	result.BFSIRelevance = result.BFSIScore >= minRelevanceScore

	if !result.Unsafe {
		for _, p := range harmfulPatterns {
			if strings.Contains(combined, p) {
				result.Unsafe = true
				result.Reason = fmt.Sprintf("harmful instruction pattern detected: %q", p)
				break
			}
		}
	}

	return result
}
