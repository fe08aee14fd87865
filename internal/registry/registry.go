package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teleterm/teleterm/internal/wire"
)

// Registry is the set of currently active sessions, indexed both by id and
// by display name (§2, §4.5; watchers attach by id, ByDisplayName serves
// name lookups). Per §4.5, the registry itself is only locked during
// insert/remove/list — everything else about a session is serialized by
// that session's own lock.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]*Session
	byTitle map[string][]*Session
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:    make(map[string]*Session),
		byTitle: make(map[string][]*Session),
	}
}

// Register adds a session, keyed by its own ID and by its display name. A
// duplicate id is a programming error — session ids come from uuid.NewString
// and are assumed collision-free, so a collision here means a caller reused
// an id rather than generating a fresh one.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; exists {
		panic(fmt.Sprintf("registry: duplicate session id %s", s.ID))
	}

	r.byID[s.ID] = s
	r.byTitle[s.DisplayName] = append(r.byTitle[s.DisplayName], s)
}

// Unregister removes a session. It does not touch the session's watchers;
// the caller is expected to have already notified them (Disconnected) and
// is responsible for detaching each one.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)

	byTitle := r.byTitle[s.DisplayName]
	for i, other := range byTitle {
		if other == s {
			byTitle = append(byTitle[:i], byTitle[i+1:]...)
			break
		}
	}
	if len(byTitle) == 0 {
		delete(r.byTitle, s.DisplayName)
	} else {
		r.byTitle[s.DisplayName] = byTitle
	}
}

// ByDisplayName returns every currently active session registered under the
// given display name (a streamer's login name may run more than one
// concurrent session).
func (r *Registry) ByDisplayName(name string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.byTitle[name]
	out := make([]*Session, len(sessions))
	copy(out, sessions)
	return out
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// List returns a snapshot of all sessions sorted by idle time ascending
// (§4.6: "reply with a Sessions snapshot sorted by idle time ascending").
func (r *Registry) List() []wire.SessionInfo {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]wire.SessionInfo, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].IdleSeconds < infos[j].IdleSeconds
	})

	return infos
}
