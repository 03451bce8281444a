// Package persistence provides the durable slots a cart store writes to.
package persistence

import (
	"context"
	"sync"

	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
)

// Memory keeps cart states in process memory. Change callbacks run on their
// own goroutine, the way a broker would deliver them.
type Memory struct {
	mu        sync.Mutex
	values    map[string][]byte
	listeners map[string]map[int]func()
	next      int
}

func NewMemory() *Memory {
	return &Memory{
		values:    make(map[string][]byte),
		listeners: make(map[string]map[int]func()),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return nil, cartdomain.ErrStateNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.values[key] = append([]byte(nil), value...)
	fns := make([]func(), 0, len(m.listeners[key]))
	for _, fn := range m.listeners[key] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		go fn()
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, key string, onChange func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	if m.listeners[key] == nil {
		m.listeners[key] = make(map[int]func())
	}
	m.listeners[key][id] = onChange
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[key], id)
	}, nil
}
