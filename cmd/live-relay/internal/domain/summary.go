package domain

import "time"

// StructuredSummary 模型生成的结构化总结
type StructuredSummary map[string]any

// SummaryRequest 一次总结所需的输入
type SummaryRequest struct {
	UserID     string
	ClientID   string
	SessionID  string // 会话恢复句柄，可能为空
	Transcript Transcript
	StartedAt  time.Time
}

// SummaryMeta 保存总结时附带的元数据
type SummaryMeta struct {
	ClientID        string  `json:"client_id"`
	SessionID       *string `json:"session_id"`
	SavedAtUTC      string  `json:"saved_at_utc"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// SavedSummary 后端保存格式
type SavedSummary struct {
	SummaryData StructuredSummary `json:"summary_data"`
	Meta        SummaryMeta       `json:"meta"`
}

// GenerationRequest 文本模型调用参数
type GenerationRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
	Temperature       float32
	JSONResponse      bool
}
