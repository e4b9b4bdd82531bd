package activity

import (
	"context"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

// MemoryLog is the in-process activity log used when Upstash is not
// configured.
type MemoryLog struct {
	mu         sync.Mutex
	maxEntries int
	sessions   map[string][]contractx.Activity
}

var _ contractx.ActivityLog = (*MemoryLog)(nil)

func NewMemoryLog(maxEntries int) *MemoryLog {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryLog{maxEntries: maxEntries, sessions: map[string][]contractx.Activity{}}
}

func (m *MemoryLog) Record(_ context.Context, a contractx.Activity) error {
	if strings.TrimSpace(a.SessionID) == "" {
		return ErrInvalidSession
	}
	a = stamp(a)

	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]contractx.Activity{a}, m.sessions[a.SessionID]...)
	if len(list) > m.maxEntries {
		list = list[:m.maxEntries]
	}
	m.sessions[a.SessionID] = list
	return nil
}

func (m *MemoryLog) Recent(_ context.Context, sessionID string, limit int) ([]contractx.Activity, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sessions[sessionID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]contractx.Activity, limit)
	copy(out, list[:limit])
	return out, nil
}
