package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

func TestValidateSummary_BoundedFields(t *testing.T) {
	// 准备测试数据
	s := domain.StructuredSummary{
		"mood_percentage":           float64(140),
		"energy_level":              float64(-5),
		"stress_level":              "42.5",
		"cognitive_score":           "n/a",
		"emotional_score":           true,
		"anxiety_level":             nil,
		"motivation_level":          float64(66.5),
		"physical_activity_minutes": float64(-10),
		"summary":                   "kept",
	}

	// 执行校验
	got := ValidateSummary(s)

	// 验证结果
	assert.Equal(t, 100, got["mood_percentage"])
	assert.Equal(t, 0, got["energy_level"])
	assert.Equal(t, 42, got["stress_level"])
	assert.Equal(t, 0, got["cognitive_score"])
	assert.Equal(t, 1, got["emotional_score"])
	assert.Nil(t, got["anxiety_level"])
	assert.Equal(t, 66, got["motivation_level"])
	assert.Equal(t, float64(0), got["physical_activity_minutes"])
	assert.Equal(t, "kept", got["summary"])
}

func TestValidateSummary_UnboundedMinutesKeepFraction(t *testing.T) {
	got := ValidateSummary(domain.StructuredSummary{"physical_activity_minutes": float64(45.5)})
	assert.Equal(t, 45.5, got["physical_activity_minutes"])
}

func TestValidateSummary_SleepDuration(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "负数", in: float64(-1), want: 0},
		{name: "超过24", in: float64(30), want: 24},
		{name: "正常值", in: float64(7.5), want: 7.5},
		{name: "数字字符串", in: "8", want: float64(8)},
		{name: "非数字", in: "lots", want: nil},
		{name: "列表", in: []any{1}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateSummary(domain.StructuredSummary{"sleep_duration_hours": tt.in})
			assert.Equal(t, tt.want, got["sleep_duration_hours"])
		})
	}
}

func TestValidateSummary_NilAndAbsent(t *testing.T) {
	assert.Nil(t, ValidateSummary(nil))

	got := ValidateSummary(domain.StructuredSummary{"sleep_duration_hours": nil})
	_, hasEnergy := got["energy_level"]
	assert.False(t, hasEnergy)
	assert.Nil(t, got["sleep_duration_hours"])
}
