package rooms

// Event names carried in outbound frames. These are the vocabulary the
// web client listens on; payload shapes are documented at the emit sites.
const (
	EventMessage             = "message"
	EventMessageSeen         = "message-seen"
	EventMessageDeleted      = "message-deleted"
	EventChatCleared         = "chat-cleared"
	EventTyping              = "typing"
	EventStopTyping          = "stop-typing"
	EventGroupMessage        = "group-message"
	EventGroupMessageRead    = "group-message-read"
	EventGroupMessageDeleted = "group-message-deleted"
	EventGroupUpdated        = "group-updated"
	EventRemovedFromGroup    = "removed-from-group"
	EventGroupTyping         = "group-typing"
	EventOnlineUsers         = "online-users"
	EventCallUser            = "call-user"
	EventCallAccepted        = "call-accepted"
	EventCallDeclined        = "call-declined"
	EventCallCancelled       = "call-cancelled"
)

// Frame is the outbound wire envelope.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
