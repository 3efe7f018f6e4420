package biz

import (
	"context"
	"encoding/json"

	"github.com/google/wire"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewContextFetcher,
	NewInstructionComposer,
	NewQuestionGenerator,
	NewPersonalizer,
	NewSummarizer,
	NewExerciseScanner,
)

// ContextRepo 后端用户上下文接口
type ContextRepo interface {
	GetUser(ctx context.Context, uid string) (*domain.UserRecord, error)
	GetRecentContext(ctx context.Context, uid string) (json.RawMessage, error)
	GetWeeklyArchives(ctx context.Context, uid string, limit int) (json.RawMessage, error)
	GetUserProfile(ctx context.Context, uid string) (json.RawMessage, error)
}

// SummaryRepo 后端总结存储接口
type SummaryRepo interface {
	SaveName(ctx context.Context, uid, name string) error
	GetPreviousSummary(ctx context.Context, uid string) (string, error)
	SaveSummary(ctx context.Context, uid string, summary domain.SavedSummary) error
}

// ExerciseRepo 推荐训练动作存储接口
type ExerciseRepo interface {
	SaveExercises(ctx context.Context, uid string, exerciseIDs json.RawMessage) error
}

// TextGenerator 文本模型接口
type TextGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}
