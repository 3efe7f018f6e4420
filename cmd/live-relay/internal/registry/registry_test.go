package registry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

func TestRegistry_RegisterRelease(t *testing.T) {
	// 准备测试数据
	r := New()
	conn := NewConnection("c-1", nil, nil, time.Now())

	// 执行登记与释放
	release := r.Register(conn)
	got, ok := r.Get("c-1")

	// 验证结果
	require.True(t, ok)
	assert.Same(t, conn, got)
	assert.Equal(t, 1, r.Count())

	release()
	release()
	assert.Equal(t, 0, r.Count())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, r.Wait(ctx))
}

func TestRegistry_ReplaceSameID(t *testing.T) {
	r := New()
	first := NewConnection("c-1", nil, nil, time.Now())
	second := NewConnection("c-1", nil, nil, time.Now())

	releaseFirst := r.Register(first)
	releaseSecond := r.Register(second)

	// 旧的释放函数不能删掉新登记的连接
	releaseFirst()
	got, ok := r.Get("c-1")
	require.True(t, ok)
	assert.Same(t, second, got)

	releaseSecond()
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_CancelAllAndWait(t *testing.T) {
	// 准备测试数据
	r := New()
	var cancelled atomic.Int32
	releases := make([]func(), 0, 3)
	for _, id := range []string{"a", "b", "c"} {
		conn := NewConnection(id, nil, func() { cancelled.Add(1) }, time.Now())
		releases = append(releases, r.Register(conn))
	}

	// 执行取消
	assert.Equal(t, 3, r.CancelAll())
	assert.Equal(t, int32(3), cancelled.Load())

	// 未释放时等待超时
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, r.Wait(ctx))

	for _, release := range releases {
		release()
	}
	assert.True(t, r.Wait(context.Background()))
}

func TestRegistry_ListSortedByStart(t *testing.T) {
	r := New()
	base := time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC)
	later := NewConnection("later", nil, nil, base.Add(time.Minute))
	earlier := NewConnection("earlier", nil, nil, base)
	r.Register(later)
	r.Register(earlier)
	require.NoError(t, earlier.SetUserID("u-1"))
	earlier.AppendTurn(domain.RoleUser, "hi", base)

	infos := r.List()

	require.Len(t, infos, 2)
	assert.Equal(t, "earlier", infos[0].ID)
	assert.Equal(t, "u-1", infos[0].UserID)
	assert.Equal(t, 1, infos[0].Turns)
	assert.Equal(t, "later", infos[1].ID)
}

func TestConnection_UserIDImmutable(t *testing.T) {
	conn := NewConnection("c-1", nil, nil, time.Now())

	require.NoError(t, conn.SetUserID("u-1"))
	err := conn.SetUserID("u-2")

	assert.ErrorIs(t, err, domain.ErrUserIDAlreadySet)
	assert.Equal(t, "u-1", conn.UserID())
}

func TestConnection_DrainTranscript(t *testing.T) {
	conn := NewConnection("c-1", nil, nil, time.Now())
	now := time.Now()
	conn.AppendTurn(domain.RoleUser, "hello", now)
	conn.AppendTurn(domain.RoleAssistant, "hi", now)

	snapshot := conn.Transcript()
	drained := conn.DrainTranscript()

	assert.Len(t, snapshot, 2)
	assert.Equal(t, snapshot, drained)
	assert.Empty(t, conn.DrainTranscript())
	assert.Equal(t, domain.RoleUser, drained[0].Role)
}

func TestConnection_State(t *testing.T) {
	conn := NewConnection("c-1", nil, nil, time.Now())
	assert.Equal(t, domain.StateAwaitingIdentity, conn.State())

	conn.SetState(domain.StateConnected)
	conn.SetSessionHandle("h-1")

	assert.Equal(t, domain.StateConnected, conn.State())
	assert.Equal(t, "h-1", conn.SessionHandle())
	assert.Equal(t, domain.StateConnected.String(), conn.Info().State)
}
