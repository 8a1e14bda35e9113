package session

import "sync"

// Memory keeps the session in process memory.
type Memory struct {
	Notifier
	mu      sync.RWMutex
	current Session
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(s Session) error {
	if !s.complete() {
		return ErrIncomplete
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	m.publish(Event{Kind: Saved, Session: s})
	return nil
}

func (m *Memory) Read() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	was := m.current.Present()
	m.current = Session{}
	m.mu.Unlock()
	if was {
		m.publish(Event{Kind: Cleared})
	}
	return nil
}
