package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, clientKey string) ([]Event, error)
}

// Actor is who triggered an event.
type Actor struct {
	UserID string
	Role   string
	IP     string
}

// Service records internal audit information.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.Type.clientScoped() && e.ClientKey == "" {
		return fmt.Errorf("%w: %s needs a client", ErrInvalidEvent, e.Type)
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) List(ctx context.Context, clientKey string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.List(ctx, clientKey)
}

func (s *Service) LogPayment(ctx context.Context, a Actor, clientKey, terminalKey string, commKey int, amount int64) error {
	return s.Append(ctx, Event{
		Type:             EventTypePayment,
		ClientKey:        clientKey,
		ActorUserID:      a.UserID,
		ActorRole:        a.Role,
		IPAddress:        a.IP,
		TerminalKey:      terminalKey,
		CommunicationKey: commKey,
		AmountMinor:      amount,
		Message:          "communication paid",
	})
}

// LogFailedContact records that clientKey could not reach terminalKey.
func (s *Service) LogFailedContact(ctx context.Context, a Actor, clientKey, terminalKey, reason string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeFailedContact,
		ClientKey:   clientKey,
		ActorUserID: a.UserID,
		ActorRole:   a.Role,
		IPAddress:   a.IP,
		TerminalKey: terminalKey,
		Message:     reason,
	})
}

func (s *Service) LogStateChange(ctx context.Context, a Actor, clientKey, terminalKey, from, to string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeStateChange,
		ClientKey:   clientKey,
		ActorUserID: a.UserID,
		ActorRole:   a.Role,
		IPAddress:   a.IP,
		TerminalKey: terminalKey,
		Message:     from + " -> " + to,
	})
}

func (s *Service) LogImport(ctx context.Context, a Actor, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeImport,
		ActorUserID: a.UserID,
		ActorRole:   a.Role,
		IPAddress:   a.IP,
		Message:     message,
	})
}

// LogAdminAction records an operator action such as a manual save.
func (s *Service) LogAdminAction(ctx context.Context, a Actor, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAdminAction,
		ActorUserID: a.UserID,
		ActorRole:   a.Role,
		IPAddress:   a.IP,
		Message:     message,
	})
}
