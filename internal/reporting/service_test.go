package reporting

import (
	"context"
	"errors"
	"testing"

	"telecom-network/internal/communications"
	"telecom-network/internal/network"
	"telecom-network/internal/terminals"
)

func TestReporting_ClientsByDebt(t *testing.T) {
	repo := newMemoryRepo()
	repo.Clients = []ClientBalance{
		{Key: "a", Owed: 10},
		{Key: "b", Owed: 0, Paid: 5, Balance: 5},
		{Key: "c", Owed: 30},
		{Key: "d", Owed: 10},
	}
	svc := NewService(repo)

	debts, err := svc.ClientsWithDebts(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(debts) != 3 || debts[0].Key != "c" || debts[1].Key != "a" || debts[2].Key != "d" {
		t.Fatalf("unexpected order %+v", debts)
	}
	clean, _ := svc.ClientsWithoutDebts(context.Background())
	if len(clean) != 1 || clean[0].Key != "b" {
		t.Fatalf("unexpected clients without debts %+v", clean)
	}
	tot, _ := svc.NetworkTotals(context.Background())
	if tot.Owed != 50 || tot.Paid != 5 || tot.Balance != -45 {
		t.Fatalf("unexpected totals %+v", tot)
	}
}

func TestReporting_Terminals(t *testing.T) {
	repo := newMemoryRepo()
	repo.Terminals = []TerminalUsage{
		{Key: "111111", Communications: 0},
		{Key: "222222", Communications: 2, Paid: 10, Balance: 10},
		{Key: "333333", Communications: 1, Owed: 10, Balance: -10},
	}
	svc := NewService(repo)
	unused, _ := svc.UnusedTerminals(context.Background())
	if len(unused) != 1 || unused[0].Key != "111111" {
		t.Fatalf("unexpected unused %+v", unused)
	}
	positive, _ := svc.TerminalsWithPositiveBalance(context.Background())
	if len(positive) != 1 || positive[0].Key != "222222" {
		t.Fatalf("unexpected positive %+v", positive)
	}
}

func TestReporting_InvalidRequest(t *testing.T) {
	svc := NewService(newMemoryRepo())
	if _, err := svc.ClientCommunications(context.Background(), "a", "sideways"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := NewService(nil).UnusedTerminals(context.Background()); err == nil {
		t.Fatalf("expected error without repository")
	}
}

func TestReporting_NetworkRepo(t *testing.T) {
	ctx := context.Background()
	n := network.New()
	n.RegisterClient("alice", "Alice", "1")
	n.RegisterClient("bob", "Bob", "2")
	n.RegisterTerminal("111111", terminals.KindFancy, "alice", terminals.StateIdle)
	n.RegisterTerminal("222222", terminals.KindFancy, "bob", terminals.StateIdle)
	n.RegisterTerminal("333333", terminals.KindBasic, "bob", terminals.StateIdle)
	if _, err := n.StartInteractive(ctx, "111111", "222222", communications.TypeVoice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := n.EndInteractive(ctx, "111111", 2); err != nil {
		t.Fatalf("end: %v", err)
	}

	svc := NewService(NewNetworkRepo(network.NewService(n)))
	debts, err := svc.ClientsWithDebts(ctx)
	if err != nil || len(debts) != 1 || debts[0].Key != "alice" || debts[0].Owed != 40 {
		t.Fatalf("unexpected debts %+v (%v)", debts, err)
	}
	unused, _ := svc.UnusedTerminals(ctx)
	if len(unused) != 1 || unused[0].Key != "333333" {
		t.Fatalf("unexpected unused %+v", unused)
	}
	got, err := svc.ClientCommunications(ctx, "bob", DirectionReceived)
	if err != nil || len(got) != 1 || got[0].SenderKey != "111111" {
		t.Fatalf("unexpected received %+v (%v)", got, err)
	}
	if _, err := svc.ClientCommunications(ctx, "zed", DirectionMade); !errors.Is(err, network.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
