package event

type Type string

const (
	TypeNotification    Type = "notification.created"
	TypeTrashCaptured   Type = "trash.captured"
	TypeTrashRestored   Type = "trash.restored"
	TypeTrashPurged     Type = "trash.purged"
	TypeTrashVisibility Type = "trash.visibility"
	TypeTrashRetired    Type = "trash.retired"
	TypeTrashSwept      Type = "trash.swept"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe(types ...Type) (<-chan Event, func())
}
