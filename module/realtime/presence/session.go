package presence

import (
	"sync"
	"time"
)

// Session is one live connection for one user. It exists only while the
// connection is up and is owned exclusively by the Registry; nothing about
// it is persisted. The transport drains Send; fan-out never blocks on it.
type Session struct {
	ID        string
	UserID    string
	Send      chan []byte
	CreatedAt time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(id, userID string, sendBuf int) *Session {
	if sendBuf <= 0 {
		sendBuf = 64
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		Send:      make(chan []byte, sendBuf),
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Close marks the session dead. Idempotent. The transport's write pump
// watches Done and tears the socket down.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) Done() <-chan struct{} { return s.done }

// TrySend queues a payload without blocking. A full queue or a closed
// session drops the payload; the caller treats that as a missed best-effort
// delivery, never an error.
func (s *Session) TrySend(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.Send <- payload:
		return true
	default:
		return false
	}
}
