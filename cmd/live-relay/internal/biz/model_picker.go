package biz

import "strings"

const defaultTextModel = "gemini-1.5-flash"

// PickTextModel 把实时/原生音频模型映射为可用于 generateContent 的文本模型
func PickTextModel(model string) string {
	m := strings.ToLower(model)
	if strings.Contains(m, "live") || strings.Contains(m, "native-audio") || strings.Contains(m, "realtime") {
		if strings.Contains(m, "2.5") || strings.Contains(m, "2-5") || strings.Contains(m, "2.0") || strings.Contains(m, "2-") {
			return "gemini-2.0-flash-exp"
		}
		return defaultTextModel
	}
	if model == "" {
		return defaultTextModel
	}
	return model
}
