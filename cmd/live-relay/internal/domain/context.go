package domain

import "encoding/json"

// UserRecord 后端用户记录
type UserRecord struct {
	Name string
	// SummaryData latestSummary.summary_data 原始 JSON，没有时为空
	SummaryData json.RawMessage
}

// DisplayName 用户称呼，缺省为 "there"
func (u *UserRecord) DisplayName() string {
	if u == nil || u.Name == "" {
		return "there"
	}
	return u.Name
}

// HasSummary 是否带有上一次会话总结
func (u *UserRecord) HasSummary() bool {
	if u == nil {
		return false
	}
	s := string(u.SummaryData)
	return s != "" && s != "null" && s != "{}"
}

// UserContext 个性化所需的全部上下文
// 各字段为后端返回的原始 JSON，缺失或请求失败时为 nil
type UserContext struct {
	User           *UserRecord
	RecentActivity json.RawMessage // {"summaries":[...]}
	Archives       json.RawMessage // {"archives":[...]}
	Profile        json.RawMessage // {"exists":bool,"profile":{...}}
}
