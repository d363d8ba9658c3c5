package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionJanitor releases the in-memory state of a session (cart, toast feed, order
// history) once the session ends, whether by sign-out or by expiry.
type SessionJanitor struct {
	mu      sync.Mutex
	expires map[string]time.Time
	hooks   []func(sessionID string)
	logger  *zap.Logger
	now     func() time.Time
}

func NewSessionJanitor(logger *zap.Logger, hooks ...func(sessionID string)) *SessionJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionJanitor{
		expires: make(map[string]time.Time),
		hooks:   hooks,
		logger:  logger,
		now:     time.Now,
	}
}

// Track records when sessionID expires. Tracking it again moves the deadline.
func (j *SessionJanitor) Track(sessionID string, expiresAt time.Time) {
	j.mu.Lock()
	j.expires[sessionID] = expiresAt
	j.mu.Unlock()
}

// Release forgets sessionID and runs the hooks for it. Untracked ids are released too,
// since their state may predate a restart.
func (j *SessionJanitor) Release(sessionID string) {
	j.mu.Lock()
	delete(j.expires, sessionID)
	j.mu.Unlock()
	j.run(sessionID)
}

// Tracked is the number of live sessions being watched.
func (j *SessionJanitor) Tracked() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.expires)
}

// Sweep releases every session whose expiry has passed and returns how many it released.
func (j *SessionJanitor) Sweep() int {
	now := j.now()
	j.mu.Lock()
	var expired []string
	for id, at := range j.expires {
		if !now.Before(at) {
			expired = append(expired, id)
			delete(j.expires, id)
		}
	}
	j.mu.Unlock()

	// hooks take their own locks
	for _, id := range expired {
		j.run(id)
	}
	return len(expired)
}

// Run sweeps every interval until stop is closed.
func (j *SessionJanitor) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Info("Released expired sessions", zap.Int("count", n))
			}
		}
	}
}

func (j *SessionJanitor) run(sessionID string) {
	for _, hook := range j.hooks {
		hook(sessionID)
	}
}
