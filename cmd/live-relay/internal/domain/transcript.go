package domain

import (
	"strings"
	"time"
)

// Role 对话角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn 一轮对话
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
}

// Transcript 按到达顺序保存的对话记录
type Transcript []Turn

// Flatten 拼成 "ROLE: text" 行，跳过空白轮次
func (t Transcript) Flatten() string {
	var b strings.Builder
	for _, turn := range t {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.ToUpper(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(text)
	}
	return b.String()
}

// UserTexts 用户轮次文本
func (t Transcript) UserTexts() []string {
	texts := make([]string, 0, len(t))
	for _, turn := range t {
		if turn.Role == RoleUser {
			texts = append(texts, turn.Text)
		}
	}
	return texts
}
