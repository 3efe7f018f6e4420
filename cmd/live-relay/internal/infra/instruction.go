package infra

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultInstruction 提示文件缺失或为空时使用
const DefaultInstruction = "You are a helpful AI assistant."

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadInstruction 读取基础系统提示
// 文件缺失时返回默认提示和错误，非 UTF-8 内容按 Windows-1252 解码
func LoadInstruction(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultInstruction, fmt.Errorf("read system instruction: %w", err)
	}
	text, err := decodeInstruction(raw)
	if err != nil {
		return DefaultInstruction, err
	}
	if text == "" {
		return DefaultInstruction, nil
	}
	return text, nil
}

func decodeInstruction(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode system instruction: %w", err)
		}
		raw = decoded
	}
	return strings.TrimSpace(string(raw)), nil
}
