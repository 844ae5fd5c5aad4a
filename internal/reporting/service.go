package reporting

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"telecom-network/internal/communications"
	"telecom-network/internal/network"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
// Implementations return rows ordered by key.
type Repository interface {
	ListClientBalances(ctx context.Context) ([]ClientBalance, error)
	ListTerminalUsage(ctx context.Context) ([]TerminalUsage, error)
	ListClientCommunications(ctx context.Context, clientKey string, dir Direction) ([]communications.Communication, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) ready() error {
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	return nil
}

// ClientsWithDebts lists clients that owe something, largest debt first.
func (s *Service) ClientsWithDebts(ctx context.Context) ([]ClientBalance, error) {
	rows, err := s.clients(ctx, func(c ClientBalance) bool { return c.Owed > 0 })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, func(a, b ClientBalance) int {
		if c := cmp.Compare(b.Owed, a.Owed); c != 0 {
			return c
		}
		return network.CompareKeys(a.Key, b.Key)
	})
	return rows, nil
}

// ClientsWithoutDebts lists clients that owe nothing, by key.
func (s *Service) ClientsWithoutDebts(ctx context.Context) ([]ClientBalance, error) {
	return s.clients(ctx, func(c ClientBalance) bool { return c.Owed == 0 })
}

// UnusedTerminals lists terminals that never made or received a communication.
func (s *Service) UnusedTerminals(ctx context.Context) ([]TerminalUsage, error) {
	return s.terminals(ctx, func(t TerminalUsage) bool { return t.Communications == 0 })
}

// TerminalsWithPositiveBalance lists terminals whose payments exceed their debts.
func (s *Service) TerminalsWithPositiveBalance(ctx context.Context) ([]TerminalUsage, error) {
	return s.terminals(ctx, func(t TerminalUsage) bool { return t.Balance > 0 })
}

// ClientCommunications lists communications made or received by any terminal of a client.
func (s *Service) ClientCommunications(ctx context.Context, clientKey string, dir Direction) ([]communications.Communication, error) {
	if clientKey == "" || (dir != DirectionMade && dir != DirectionReceived) {
		return nil, ErrInvalidRequest
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListClientCommunications(ctx, clientKey, dir)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rows, func(a, b communications.Communication) int { return cmp.Compare(a.Key, b.Key) })
	return rows, nil
}

// NetworkTotals sums payments and debts over every client.
func (s *Service) NetworkTotals(ctx context.Context) (Totals, error) {
	rows, err := s.clients(ctx, func(ClientBalance) bool { return true })
	if err != nil {
		return Totals{}, err
	}
	var out Totals
	for _, c := range rows {
		out.Paid += c.Paid
		out.Owed += c.Owed
	}
	out.Balance = out.Paid - out.Owed
	return out, nil
}

func (s *Service) clients(ctx context.Context, keep func(ClientBalance) bool) ([]ClientBalance, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListClientBalances(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ClientBalance, 0, len(rows))
	for _, c := range rows {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) terminals(ctx context.Context, keep func(TerminalUsage) bool) ([]TerminalUsage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListTerminalUsage(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TerminalUsage, 0, len(rows))
	for _, t := range rows {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
