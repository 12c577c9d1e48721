package service

// Notifier is the best-effort notify capability, kept deliberately apart
// from the durable write: services write to the store first, then call one
// of these, and a lost notification is never surfaced to the caller.
// rooms.Router satisfies it.
type Notifier interface {
	EmitToUser(userID, event string, data any)
	EmitToGroup(groupID, event string, data any)
	Broadcast(event string, data any)
}
