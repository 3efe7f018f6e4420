package biz

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	recentRule  = "------------------------------------------------"
	sectionRule = "--------------------------------------------------"
	closingRule = "--------------------------"

	recentHints = "\nUse the recent activity timeline above to:\n" +
		"- Reference both journal entries and AI sessions naturally\n" +
		"- Follow up on action items from previous AI sessions\n" +
		"- Acknowledge journal entries when relevant\n\n"
	archiveHints = "\nUse the weekly archives to:\n" +
		"- Recognize long-term patterns and progress\n" +
		"- Reference past breakthroughs or challenges when relevant\n" +
		"- Celebrate growth over weeks\n\n"
	profileHints = "\nUse the user profile to:\n" +
		"- Adapt your communication style to match theirs\n" +
		"- Reference their strengths when they feel discouraged\n" +
		"- Use language that matches their emotional vocabulary range\n" +
		"- NEVER explicitly mention 'the profile' - just naturally incorporate the knowledge\n\n"
	questionsLead = "After the greeting, gently ask one of the following questions to help them open up, " +
		"based on their previous conversation. Choose the one that feels most natural.\n"
	genericQuestion = "After the greeting, ask a general open-ended question like 'What's been on your mind lately?' or 'How have things been for you?'.\n"

	sourceAISession = "ai_session"
	sourceJournal   = "journal_entry"
)

// ComposeInput 组装系统提示所需的片段
type ComposeInput struct {
	Base           string
	UserName       string
	RecentActivity json.RawMessage
	Archives       json.RawMessage
	Profile        json.RawMessage
	Questions      string
}

// InstructionComposer 组装个性化系统提示
type InstructionComposer struct {
	now func() time.Time
}

// NewInstructionComposer 创建组装器
func NewInstructionComposer() *InstructionComposer {
	return &InstructionComposer{now: time.Now}
}

// Compose 按固定顺序拼接各段，输入为空的段整体省略
func (c *InstructionComposer) Compose(in ComposeInput) string {
	var b strings.Builder
	b.WriteString(in.Base)
	b.WriteString("\n\n--- Conversation Context ---\n")
	fmt.Fprintf(&b, "Start the conversation by warmly welcoming the user back. Greet them by name: '%s'.\n", in.UserName)

	if section := c.recentSection(in.RecentActivity); section != "" {
		b.WriteString(section)
		b.WriteString(recentHints)
	}
	if section := archivesSection(in.Archives); section != "" {
		b.WriteString(section)
		b.WriteString(archiveHints)
	}
	if section := profileSection(in.Profile); section != "" {
		b.WriteString(section)
		b.WriteString(profileHints)
	}

	if in.Questions != "" {
		b.WriteString(questionsLead)
		b.WriteString(in.Questions)
		b.WriteString("\n")
	} else {
		b.WriteString(genericQuestion)
	}
	b.WriteString(closingRule)
	return b.String()
}

// recentSection 近期活动时间线
func (c *InstructionComposer) recentSection(raw json.RawMessage) string {
	summaries := gjson.GetBytes(raw, "summaries")
	if !summaries.IsArray() || len(summaries.Array()) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n--- RECENT ACTIVITY (Last 5 Summaries) ---\n")
	b.WriteString("Full details of all interactions:\n\n")

	sessions, logs := 0, 0
	for _, s := range summaries.Array() {
		source := "unknown"
		if v := s.Get("source"); v.Exists() {
			source = v.String()
		}
		switch source {
		case sourceAISession:
			sessions++
		case sourceJournal:
			logs++
		}

		daysAgo, dateStr := "recent", "Unknown date"
		if ts := s.Get("timestamp").String(); ts != "" {
			if t, ok := parseISOTime(ts); ok {
				days := int(math.Floor(c.now().Sub(t).Hours() / 24))
				switch days {
				case 0:
					daysAgo = "Today"
				case 1:
					daysAgo = "Yesterday"
				default:
					daysAgo = fmt.Sprintf("%d days ago", days)
				}
				dateStr = t.Format("Jan 02, 03:04 PM")
			}
		}

		icon, label := "📔", "Fitness Log"
		if source == sourceAISession {
			icon, label = "🎙️", "AI Coaching Session"
		}
		fmt.Fprintf(&b, "%s %s (%s) - %s\n", icon, dateStr, daysAgo, label)

		if source == sourceJournal {
			title := "Untitled"
			if v := s.Get("title"); v.Exists() {
				title = displayValue(v)
			}
			if title != "" && title != "Untitled" {
				fmt.Fprintf(&b, "Title: \"%s\"\n", title)
			}
			if v := s.Get("workout_type"); truthy(v) {
				fmt.Fprintf(&b, "Workout: %s\n", displayValue(v))
			}
		}

		if v := s.Get("summary_text"); truthy(v) {
			fmt.Fprintf(&b, "%s\n", displayValue(v))
		}
		if topics := firstTruthy(s.Get("fitness_topics_discussed"), s.Get("key_topics")); truthy(topics) {
			fmt.Fprintf(&b, "Topics covered: %s\n", displayValue(topics))
		}
		if source == sourceAISession {
			if items := firstTruthy(s.Get("action_items_suggested"), s.Get("action_items")); truthy(items) {
				fmt.Fprintf(&b, "Action items: %s\n", displayValue(items))
			}
			if v := s.Get("workout_adherence"); truthy(v) {
				fmt.Fprintf(&b, "Workout adherence: %s\n", displayValue(v))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(recentRule + "\n")
	fmt.Fprintf(&b, "\nRecent activity summary: %d coaching sessions, %d fitness logs\n", sessions, logs)
	return b.String()
}

// archivesSection 周训练归档
func archivesSection(raw json.RawMessage) string {
	archives := gjson.GetBytes(raw, "archives")
	if !archives.IsArray() || len(archives.Array()) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n--- WEEKLY TRAINING HISTORY (Historical Context) ---\n")
	b.WriteString("Overview of previous weeks' training:\n\n")

	for _, a := range archives.Array() {
		dateRange := fmt.Sprintf("Week %s, %s", valueOr(a.Get("week_number"), "?"), valueOr(a.Get("year"), "?"))
		weekStart, weekEnd := a.Get("week_start").String(), a.Get("week_end").String()
		if weekStart != "" && weekEnd != "" {
			start, okStart := parseISOTime(weekStart)
			end, okEnd := parseISOTime(weekEnd)
			if okStart && okEnd {
				dateRange = start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006")
			}
		}
		fmt.Fprintf(&b, "📅 %s\n", dateRange)

		count := a.Get("summary_count")
		fmt.Fprintf(&b, "Activity: %s coaching sessions, %s fitness logs\n\n",
			valueOr(count.Get("sessions"), "0"), valueOr(count.Get("journals"), "0"))

		if v := a.Get("narrative_summary"); truthy(v) {
			fmt.Fprintf(&b, "%s\n\n", displayValue(v))
		}
		if v := a.Get("dominant_themes"); truthy(v) {
			fmt.Fprintf(&b, "Training focus: %s\n", displayValue(v))
		}
		if v := firstTruthy(a.Get("emotional_trajectory"), a.Get("progress_trajectory")); truthy(v) {
			fmt.Fprintf(&b, "Progress trajectory: %s\n", displayValue(v))
		}

		energy := firstTruthy(a.Get("energy_avg"), a.Get("mood_avg"))
		motivation := firstTruthy(a.Get("motivation_avg"), a.Get("stress_avg"))
		var metrics []string
		if present(energy) {
			metrics = append(metrics, fmt.Sprintf("Energy: %s/100", displayValue(energy)))
		}
		if present(motivation) {
			metrics = append(metrics, fmt.Sprintf("Motivation: %s/100", displayValue(motivation)))
		}
		if len(metrics) > 0 {
			fmt.Fprintf(&b, "Metrics: %s\n", strings.Join(metrics, ", "))
		}

		b.WriteString("\n" + sectionRule + "\n\n")
	}
	return b.String()
}

// profileField 画像子块
type profileField struct {
	heading string
	key     string
	label   string
	extra   string
}

var profileBlocks = []profileField{
	{heading: "FITNESS GOALS", key: "fitnessGoals", label: "Primary goal"},
	{heading: "FITNESS LEVEL", key: "currentFitnessLevel", label: "Current level"},
	{heading: "TRAINING SCHEDULE", key: "workoutDays", label: "Available days per week"},
	{heading: "INJURIES/LIMITATIONS", key: "injuries", label: "Notes",
		extra: "  ⚠️ IMPORTANT: Always modify exercises to accommodate these limitations\n"},
	{heading: "DIETARY PREFERENCES", key: "dietaryRestrictions", label: "Restrictions"},
	{heading: "EQUIPMENT", key: "equipmentAccess", label: "Available equipment"},
	{heading: "PREFERENCES", key: "trainingPreferences", label: "Training style"},
}

// profileSection 用户画像，仅在 exists 为真时输出
func profileSection(raw json.RawMessage) string {
	if !truthy(gjson.GetBytes(raw, "exists")) {
		return ""
	}
	profile := gjson.GetBytes(raw, "profile")

	var b strings.Builder
	b.WriteString("\n\n--- USER PROFILE (Fitness Context) ---\n")
	b.WriteString("Long-term fitness profile and preferences:\n\n")

	var basic strings.Builder
	for _, f := range []struct{ key, label string }{
		{"age", "Age"}, {"gender", "Gender"}, {"height", "Height"}, {"weight", "Weight"},
	} {
		if v := profile.Get(f.key); truthy(v) {
			fmt.Fprintf(&basic, "  • %s: %s\n", f.label, displayValue(v))
		}
	}
	if basic.Len() > 0 {
		b.WriteString("BASIC INFO:\n")
		b.WriteString(basic.String())
		b.WriteString("\n")
	}

	for _, block := range profileBlocks {
		v := profile.Get(block.key)
		if !truthy(v) {
			continue
		}
		fmt.Fprintf(&b, "%s:\n  • %s: %s\n", block.heading, block.label, displayValue(v))
		b.WriteString(block.extra)
		b.WriteString("\n")
	}

	b.WriteString(sectionRule + "\n\n")
	return b.String()
}

// truthy 空值、false、0、空串和空容器为假
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	}
	return false
}

// present 字段存在且非 null
func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func firstTruthy(a, b gjson.Result) gjson.Result {
	if truthy(a) {
		return a
	}
	return b
}

func valueOr(r gjson.Result, def string) string {
	if !r.Exists() {
		return def
	}
	return displayValue(r)
}

// displayValue 数组用逗号连接，数字保持原始写法
func displayValue(r gjson.Result) string {
	switch {
	case r.IsArray():
		items := r.Array()
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, displayValue(item))
		}
		return strings.Join(parts, ", ")
	case r.Type == gjson.Number:
		return r.Raw
	case r.Type == gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseISOTime 解析 ISO-8601 时间，无时区时按本地时间
func parseISOTime(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
