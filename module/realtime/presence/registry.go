package presence

import (
	"sort"
	"sync"
)

// Registry is the in-memory, process-local table of live sessions. It is
// the source of truth for "currently connected"; the persisted is_online
// flag is a lagging projection of it. A user is Online while at least one
// session is registered and goes Offline when the last one is removed.
//
// The registry is built at process start and passed by reference to the
// transport and the reconciler; there is no package-global instance.
type Registry struct {
	mu         sync.RWMutex
	byUser     map[string]map[string]*Session // userID -> sessionID -> session
	byID       map[string]*Session
	maxPerUser int // <=0 unlimited
}

func NewRegistry(maxPerUser int) *Registry {
	return &Registry{
		byUser:     make(map[string]map[string]*Session),
		byID:       make(map[string]*Session),
		maxPerUser: maxPerUser,
	}
}

// Register adds a session. When the per-user cap is exceeded the oldest
// session is evicted and returned; the caller closes it. wentOnline is true
// when this is the user's first live session (Offline -> Online edge).
func (r *Registry) Register(s *Session) (evicted *Session, wentOnline bool) {
	if s == nil || s.ID == "" || s.UserID == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	mm := r.byUser[s.UserID]
	if mm == nil {
		mm = make(map[string]*Session)
		r.byUser[s.UserID] = mm
		wentOnline = true
	}

	if r.maxPerUser > 0 && len(mm) >= r.maxPerUser {
		var oldest *Session
		for _, w := range mm {
			if oldest == nil || w.CreatedAt.Before(oldest.CreatedAt) {
				oldest = w
			}
		}
		if oldest != nil {
			delete(mm, oldest.ID)
			delete(r.byID, oldest.ID)
			evicted = oldest
		}
	}

	mm[s.ID] = s
	r.byID[s.ID] = s
	return evicted, wentOnline
}

// Unregister removes a session by id. wentOffline is true when this was the
// user's last session (Online -> Offline edge).
func (r *Registry) Unregister(sessionID string) (userID string, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return "", false
	}
	delete(r.byID, sessionID)
	if mm := r.byUser[s.UserID]; mm != nil {
		delete(mm, sessionID)
		if len(mm) == 0 {
			delete(r.byUser, s.UserID)
			wentOffline = true
		}
	}
	return s.UserID, wentOffline
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// OnlineUsers returns the connected user ids, sorted for stable broadcasts.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// SessionsFor returns the user's live sessions.
func (r *Registry) SessionsFor(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mm := r.byUser[userID]
	if len(mm) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(mm))
	for _, s := range mm {
		out = append(out, s)
	}
	return out
}

// AllSessions returns every live session (broadcast fan-out).
func (r *Registry) AllSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Close closes every session and empties the registry. Called at process
// shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		s.Close()
	}
	r.byUser = make(map[string]map[string]*Session)
	r.byID = make(map[string]*Session)
}
