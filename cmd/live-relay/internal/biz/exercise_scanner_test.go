package biz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
)

func TestExerciseScanner_Scan(t *testing.T) {
	var savedUID string
	var savedIDs json.RawMessage
	repo := &mockExerciseRepo{SaveExercisesFunc: func(ctx context.Context, uid string, ids json.RawMessage) error {
		savedUID, savedIDs = uid, ids
		return nil
	}}
	s := NewExerciseScanner(repo, ExerciseOptions{Enabled: true}, log.DefaultLogger)

	ok := s.Scan(t.Context(), "u1", `Here you go {"suggested_exercises": ["squat", "plank"]} enjoy`)

	assert.True(t, ok)
	assert.Equal(t, "u1", savedUID)
	assert.JSONEq(t, `["squat","plank"]`, string(savedIDs))
}

func TestExerciseScanner_Skips(t *testing.T) {
	called := false
	repo := &mockExerciseRepo{SaveExercisesFunc: func(ctx context.Context, uid string, ids json.RawMessage) error {
		called = true
		return nil
	}}
	enabled := NewExerciseScanner(repo, ExerciseOptions{Enabled: true}, log.DefaultLogger)
	disabled := NewExerciseScanner(repo, ExerciseOptions{}, log.DefaultLogger)

	tests := []struct {
		name    string
		scanner *ExerciseScanner
		text    string
	}{
		{name: "关闭", scanner: disabled, text: `{"suggested_exercises":["a"]}`},
		{name: "没有标记", scanner: enabled, text: `{"exercises":["a"]}`},
		{name: "JSON无效", scanner: enabled, text: `{"suggested_exercises": [oops}`},
		{name: "不是数组", scanner: enabled, text: `{"suggested_exercises":"squat"}`},
		{name: "空数组", scanner: enabled, text: `{"suggested_exercises": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.scanner.Scan(t.Context(), "u1", tt.text))
		})
	}
	assert.False(t, called)
}

func TestExerciseScanner_SaveError(t *testing.T) {
	repo := &mockExerciseRepo{SaveExercisesFunc: func(ctx context.Context, uid string, ids json.RawMessage) error {
		return errors.New("500")
	}}
	s := NewExerciseScanner(repo, ExerciseOptions{Enabled: true}, log.DefaultLogger)
	assert.False(t, s.Scan(t.Context(), "u1", `{"suggested_exercises":[1,2]}`))
}
