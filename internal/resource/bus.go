package resource

import (
	"context"
	"sync"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionHide   Action = "hide"
	ActionUnhide Action = "unhide"
	ActionStatus Action = "status"
)

// Event announces a confirmed mutation.
type Event struct {
	Resource string
	Action   Action
	Key      string
}

type Handler func(ctx context.Context, e Event)

// Bus invalidates lists after mutations. Publish runs handlers
// synchronously, so a refresh always starts after the mutation resolved.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers h for events of resource and returns the function
// that removes it.
func (b *Bus) Subscribe(resource string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	if b.subs[resource] == nil {
		b.subs[resource] = make(map[int]Handler)
	}
	b.subs[resource][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[resource], id)
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Resource]))
	for _, h := range b.subs[e.Resource] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}
