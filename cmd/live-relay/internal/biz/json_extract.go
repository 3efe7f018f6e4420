package biz

import (
	"encoding/json"
	"strings"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// ExtractJSON 从模型输出中尽力取出 JSON 对象
// 依次尝试整体解析、首个 { 到最后一个 } 的片段，最后退化为 {"raw": 文本}
func ExtractJSON(text string) domain.StructuredSummary {
	if text == "" {
		return domain.StructuredSummary{"raw": ""}
	}
	if obj, ok := parseObject(text); ok {
		return obj
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if obj, ok := parseObject(text[start : end+1]); ok {
			return obj
		}
	}
	return domain.StructuredSummary{"raw": strings.TrimSpace(text)}
}

func parseObject(s string) (domain.StructuredSummary, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
