package registry

import (
	"context"
	"sort"
	"sync"
)

// Registry 活跃连接表
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*entry
	wg    sync.WaitGroup
}

type entry struct {
	conn *Connection
	once sync.Once
}

// New 创建连接表
func New() *Registry {
	return &Registry{conns: make(map[string]*entry)}
}

// Register 登记连接，返回幂等的释放函数
func (r *Registry) Register(conn *Connection) (release func()) {
	e := &entry{conn: conn}

	r.mu.Lock()
	old := r.conns[conn.ID]
	r.conns[conn.ID] = e
	r.wg.Add(1)
	r.mu.Unlock()

	if old != nil {
		r.release(conn.ID, old)
	}
	return func() { r.release(conn.ID, e) }
}

func (r *Registry) release(id string, e *entry) {
	e.once.Do(func() {
		r.mu.Lock()
		if r.conns[id] == e {
			delete(r.conns, id)
		}
		r.mu.Unlock()
		r.wg.Done()
	})
}

// Get 按ID查找连接
func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Count 活跃连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// List 所有连接概要，按开始时间排序
func (r *Registry) List() []Info {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, e := range r.conns {
		conns = append(conns, e.conn)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(conns))
	for _, c := range conns {
		infos = append(infos, c.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].StartedAt.Before(infos[j].StartedAt) })
	return infos
}

// CancelAll 取消所有连接，返回取消数量
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, e := range r.conns {
		conns = append(conns, e.conn)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		c.Cancel()
	}
	return len(conns)
}

// Wait 等待所有连接释放，ctx 到期返回 false
func (r *Registry) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
