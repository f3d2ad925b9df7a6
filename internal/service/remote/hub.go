package remote

import (
	"sync"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

const subscriptionBuffer = 16

// Subscription 单个会话的变更订阅
type Subscription struct {
	SessionID string

	ch   chan model.ChangeEvent
	hub  *hub
	id   uint64
	once sync.Once
}

// Events 事件通道；Unsubscribe 后关闭
func (s *Subscription) Events() <-chan model.ChangeEvent {
	return s.ch
}

// Unsubscribe 释放订阅并关闭通道，可重复调用
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

type hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[uint64]*Subscription)}
}

func (h *hub) subscribe(sessionID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		SessionID: sessionID,
		ch:        make(chan model.ChangeEvent, subscriptionBuffer),
		hub:       h,
		id:        h.nextID,
	}
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[uint64]*Subscription)
	}
	h.subs[sessionID][sub.id] = sub
	return sub
}

func (h *hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subs[sub.SessionID]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.subs, sub.SessionID)
		}
	}
	close(sub.ch)
}

// publish 非阻塞投递；订阅者缓冲已满时丢弃（订阅方收到任一事件都会整表重载）
func (h *hub) publish(ev model.ChangeEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *hub) count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
