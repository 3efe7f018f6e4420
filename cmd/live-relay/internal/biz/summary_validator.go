package biz

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// scoreBound 数值字段范围，max 为 nil 表示无上限
type scoreBound struct {
	min float64
	max *float64
}

func upTo(v float64) *float64 { return &v }

var scoreFields = map[string]scoreBound{
	"mood_percentage":           {0, upTo(100)},
	"energy_level":              {0, upTo(100)},
	"stress_level":              {0, upTo(100)},
	"cognitive_score":           {0, upTo(100)},
	"emotional_score":           {0, upTo(100)},
	"anxiety_level":             {0, upTo(100)},
	"motivation_level":          {0, upTo(100)},
	"physical_activity_minutes": {0, nil},
}

// ValidateSummary 裁剪并规整数值字段，原地修改并返回
func ValidateSummary(s domain.StructuredSummary) domain.StructuredSummary {
	if s == nil {
		return s
	}

	for field, bound := range scoreFields {
		raw, ok := s[field]
		if !ok || raw == nil {
			continue
		}
		score, ok := toFloat(raw)
		if !ok || math.IsNaN(score) {
			s[field] = 0
			continue
		}
		if score < bound.min {
			score = bound.min
		}
		if bound.max != nil && score > *bound.max {
			score = *bound.max
		}
		if math.IsInf(score, 0) {
			score = 0
		}
		if isRoundedField(field) {
			s[field] = int(math.RoundToEven(score))
		} else {
			s[field] = score
		}
	}

	if raw, ok := s["sleep_duration_hours"]; ok && raw != nil {
		hours, ok := toFloat(raw)
		switch {
		case !ok || math.IsNaN(hours):
			s["sleep_duration_hours"] = nil
		case hours < 0:
			s["sleep_duration_hours"] = 0
		case hours > 24:
			s["sleep_duration_hours"] = 24
		default:
			s["sleep_duration_hours"] = hours
		}
	}
	return s
}

func isRoundedField(field string) bool {
	return strings.HasSuffix(field, "_level") ||
		strings.HasSuffix(field, "_score") ||
		strings.HasSuffix(field, "_percentage")
}

// toFloat 接受数字、数字字符串和布尔值
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
