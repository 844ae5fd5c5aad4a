package audit

import (
	"context"
	"errors"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{ClientKey: "alice"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypePayment}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("payment without client must fail, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeImport}); err != nil {
		t.Fatalf("import needs no client: %v", err)
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	actor := Actor{UserID: "op", Role: "operator", IP: "1.2.3.4"}

	if err := svc.LogPayment(context.Background(), actor, "alice", "111111", 3, 200); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogFailedContact(context.Background(), actor, "bob", "111111", "terminal is off"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events")
	}
	if evs[0].IPAddress != "1.2.3.4" || evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected ip, id and time captured: %+v", evs[0])
	}
	if evs[0].Type != EventTypePayment || evs[0].AmountMinor != 200 {
		t.Fatalf("unexpected payment event %+v", evs[0])
	}

	mine, _ := svc.List(context.Background(), "bob")
	if len(mine) != 1 || mine[0].Type != EventTypeFailedContact {
		t.Fatalf("expected bob's failed contact only, got %+v", mine)
	}
}
