package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// WorkspaceFactory builds a fresh workspace for a session.
type WorkspaceFactory func(session models.Session) *ReviewWorkspace

type workspaceEntry struct {
	workspace *ReviewWorkspace
	lastSeen  time.Time
}

// WorkspaceRegistry keeps one review workspace per user. Idle workspaces expire after ttl.
type WorkspaceRegistry struct {
	mu      sync.Mutex
	entries map[string]*workspaceEntry
	factory WorkspaceFactory
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewWorkspaceRegistry constructs a registry.
func NewWorkspaceRegistry(factory WorkspaceFactory, ttl time.Duration, logger *zap.Logger) *WorkspaceRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &WorkspaceRegistry{
		entries: make(map[string]*workspaceEntry),
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Get returns the session's workspace, creating it on first use.
func (r *WorkspaceRegistry) Get(session models.Session) (*ReviewWorkspace, error) {
	if !session.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.entries[session.UserID]
	if ok && now.Sub(entry.lastSeen) > r.ttl {
		delete(r.entries, session.UserID)
		ok = false
	}
	if !ok {
		entry = &workspaceEntry{workspace: r.factory(session)}
		r.entries[session.UserID] = entry
		r.logger.Debug("review workspace opened", zap.String("user_id", session.UserID))
	}
	entry.lastSeen = now
	return entry.workspace, nil
}

// Evict drops a session's workspace.
func (r *WorkspaceRegistry) Evict(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// Sweep removes idle workspaces and reports how many were dropped.
func (r *WorkspaceRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, entry := range r.entries {
		if now.Sub(entry.lastSeen) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("expired review workspaces", zap.Int("count", removed))
	}
	return removed
}

// Len reports the number of open workspaces.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
