// Package session keeps live graphs in memory between requests.
//
// A session wraps one [graph.Graph] built from a document. Clients edit it
// incrementally (override literals, link and unlink slots) and re-solve
// with QuickTopoSolve, so only the part of the graph downstream of each
// edit runs again.
//
// # Usage
//
//	m := session.NewManager(components.Default(), session.DefaultTTL)
//	sess, err := m.Create(doc)
//	err = m.With(sess.ID, func(g *graph.Graph) error {
//	    if err := g.HardSet(ref, tree); err != nil {
//	        return err
//	    }
//	    _, err := g.QuickTopoSolve(ctx)
//	    return err
//	})
//
// Sessions expire after their TTL without access; [Manager.Cleanup]
// removes them and [Manager.Run] calls it periodically.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/treeflow/pkg/components"
	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
)

// Default durations.
const (
	// DefaultTTL is how long an idle session lives.
	DefaultTTL = time.Hour

	// DefaultCleanupInterval is how often Run sweeps expired sessions.
	DefaultCleanupInterval = time.Minute
)

// Session is one live graph.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	mu    sync.Mutex
	graph *graph.Graph
}

// IsExpired reports whether the session has passed its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Manager owns every live session. It is safe for concurrent use; calls
// on the same session are serialized.
type Manager struct {
	registry *components.Registry
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. A non-positive ttl uses DefaultTTL.
func NewManager(reg *components.Registry, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if reg == nil {
		reg = components.Default()
	}
	return &Manager{
		registry: reg,
		ttl:      ttl,
		logger:   log.Default(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// SetLogger replaces the logger handed to session graphs.
func (m *Manager) SetLogger(l *log.Logger) { m.logger = l }

// Create builds the document's graph and opens a session on it. The graph
// starts unsolved.
func (m *Manager) Create(doc document.Document) (*Session, error) {
	g, err := doc.Build(m.registry, graph.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Name:      doc.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		graph:     g,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	m.logger.Debug("session created", "id", sess.ID, "components", g.Len())
	return sess, nil
}

// With runs fn on the session's graph while holding the session lock and
// extends the session's expiry.
func (m *Manager) With(id string, fn func(*graph.Graph) error) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	m.mu.Lock()
	sess.ExpiresAt = m.now().Add(m.ttl)
	m.mu.Unlock()
	return fn(sess.graph)
}

// Get returns a live session. Expired sessions are removed and reported
// as NOT_FOUND.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	expired := ok && sess.IsExpired(m.now())
	m.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "session %q not found", id)
	}
	if expired {
		_ = m.Delete(id)
		return nil, errors.New(errors.ErrCodeNotFound, "session %q expired", id)
	}
	return sess, nil
}

// Delete closes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "session %q not found", id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns the IDs of live sessions, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	ids := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if !s.IsExpired(now) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of sessions, expired ones included until swept.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes expired sessions and returns how many it removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("sessions expired", "removed", removed)
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
