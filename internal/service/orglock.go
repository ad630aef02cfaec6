// internal/service/orglock.go
package service

import (
	"sync"

	"github.com/google/uuid"
)

// orgLocker hands out one mutex per organization id. Capacity-sensitive
// writes take the lock around their count-then-write transaction so two
// concurrent activations cannot both pass the limit check. This relies on
// the single-writer-per-organization deployment assumption.
type orgLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newOrgLocker() *orgLocker {
	return &orgLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the organization's mutex and returns the unlock function.
func (l *orgLocker) Lock(orgID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[orgID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[orgID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
