package pkg

import (
	"context"
	"sync"

	"Mentor_Community/internal/model"
)

// Hub 进程内变更分发，同步回调订阅者
type Hub struct {
	mu   sync.RWMutex
	seq  int
	subs map[string]map[int]func(model.Change)
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[int]func(model.Change){}}
}

func (h *Hub) Publish(ctx context.Context, c model.Change) error {
	h.mu.RLock()
	handlers := make([]func(model.Change), 0, len(h.subs[c.Table]))
	for _, fn := range h.subs[c.Table] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()
	for _, fn := range handlers {
		fn(c)
	}
	return nil
}

// Subscribe 返回的取消函数可重复调用
func (h *Hub) Subscribe(ctx context.Context, table string, onChange func(model.Change)) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	id := h.seq
	if h.subs[table] == nil {
		h.subs[table] = map[int]func(model.Change){}
	}
	h.subs[table][id] = onChange
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[table], id)
			h.mu.Unlock()
		})
	}, nil
}
