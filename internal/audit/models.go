package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block network operations on audit failures.
type Event struct {
	ID string `json:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type"`

	// ClientKey is the client the event is about, when there is one.
	ClientKey string `json:"client_key,omitempty"`

	ActorUserID string `json:"actor_user_id,omitempty"`
	ActorRole   string `json:"actor_role,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`

	TerminalKey      string `json:"terminal_key,omitempty"`
	CommunicationKey int    `json:"communication_key,omitempty"`
	AmountMinor      int64  `json:"amount_minor,omitempty"`

	// Message is a short human-readable description for operators.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypePayment       EventType = "payment"
	EventTypeFailedContact EventType = "failed_contact"
	EventTypeStateChange   EventType = "state_change"
	EventTypeImport        EventType = "import"
	EventTypeAdminAction   EventType = "admin_action"
)

// clientScoped event types must name a client.
func (t EventType) clientScoped() bool {
	return t == EventTypePayment || t == EventTypeFailedContact
}
