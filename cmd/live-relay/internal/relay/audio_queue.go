package relay

import (
	"context"
	"sync"
)

// AudioQueue 有界 FIFO，满时丢弃最旧的块
type AudioQueue struct {
	mu     sync.Mutex
	items  [][]byte
	limit  int
	notify chan struct{}
}

// NewAudioQueue 创建队列
func NewAudioQueue(limit int) *AudioQueue {
	if limit <= 0 {
		limit = 512
	}
	return &AudioQueue{
		limit:  limit,
		notify: make(chan struct{}, 1),
	}
}

// Push 入队，返回是否丢弃了最旧的块
func (q *AudioQueue) Push(chunk []byte) (dropped bool) {
	q.mu.Lock()
	if len(q.items) >= q.limit {
		q.items[0] = nil
		q.items = q.items[1:]
		dropped = true
	}
	q.items = append(q.items, chunk)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return dropped
}

// Pop 阻塞直到有数据或 ctx 结束
func (q *AudioQueue) Pop(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			chunk := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return chunk, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len 当前长度
func (q *AudioQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
