package biz

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/tidwall/gjson"
)

const exerciseMarker = `"suggested_exercises"`

// ExerciseOptions 推荐动作旁路配置
type ExerciseOptions struct {
	Enabled bool
}

// ExerciseScanner 从模型输出中提取推荐训练动作
type ExerciseScanner struct {
	repo ExerciseRepo
	opts ExerciseOptions
	log  *log.Helper
}

// NewExerciseScanner 创建扫描器
func NewExerciseScanner(repo ExerciseRepo, opts ExerciseOptions, logger log.Logger) *ExerciseScanner {
	return &ExerciseScanner{
		repo: repo,
		opts: opts,
		log:  log.NewHelper(log.With(logger, "module", "biz/exercises")),
	}
}

// Enabled 是否开启
func (s *ExerciseScanner) Enabled() bool {
	return s.opts.Enabled
}

// Scan 文本中带有非空 suggested_exercises 数组时保存，返回是否保存成功
func (s *ExerciseScanner) Scan(ctx context.Context, uid, text string) bool {
	if !s.opts.Enabled || uid == "" || !strings.Contains(text, exerciseMarker) {
		return false
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		s.log.WithContext(ctx).Debugf("suggested_exercises payload is not valid JSON")
		return false
	}

	// 空数组不保存
	ids := gjson.Get(candidate, "suggested_exercises")
	if !ids.IsArray() || len(ids.Array()) == 0 {
		return false
	}
	if err := s.repo.SaveExercises(ctx, uid, json.RawMessage(ids.Raw)); err != nil {
		s.log.WithContext(ctx).Warnf("save suggested exercises for %s: %v", uid, err)
		return false
	}
	return true
}
