package call

import (
	"encoding/json"

	"Linkup/logger"
	"Linkup/module/realtime/rooms"
)

// Presence answers "does the target have a live connection".
type Presence interface {
	IsOnline(userID string) bool
}

// Notifier delivers to a user's personal room.
type Notifier interface {
	EmitToUser(userID, event string, data any)
}

// Relay forwards call signaling between users. It keeps no state and
// persists nothing: an invite to an offline target is silently dropped
// (the caller's own timeout is its only recourse), and answer/teardown
// events pass through unconditionally so a mid-call disconnect race still
// reaches whoever is left.
type Relay struct {
	presence Presence
	notify   Notifier
}

func NewRelay(presence Presence, notify Notifier) *Relay {
	return &Relay{presence: presence, notify: notify}
}

// CallUser forwards an invite with the caller's offer/signal payload.
func (r *Relay) CallUser(fromID, fromName, toID string, signal json.RawMessage) {
	if !r.presence.IsOnline(toID) {
		logger.Debugf("[call] drop invite from=%s to=%s (target offline)", fromID, toID)
		return
	}
	r.notify.EmitToUser(toID, rooms.EventCallUser, map[string]any{
		"from":     fromID,
		"fromName": fromName,
		"signal":   signal,
	})
}

func (r *Relay) Accept(fromID, toID string, signal json.RawMessage) {
	r.notify.EmitToUser(toID, rooms.EventCallAccepted, map[string]any{
		"from":   fromID,
		"signal": signal,
	})
}

func (r *Relay) Decline(fromID, toID string) {
	r.notify.EmitToUser(toID, rooms.EventCallDeclined, map[string]any{"from": fromID})
}

func (r *Relay) Cancel(fromID, toID string) {
	r.notify.EmitToUser(toID, rooms.EventCallCancelled, map[string]any{"from": fromID})
}
