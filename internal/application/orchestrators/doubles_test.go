package orchestrators

import (
	"context"
	"errors"
	"sync"

	emailAdapter "eventtracker/internal/adapters/email"
	"eventtracker/internal/domain/account"
	"eventtracker/internal/domain/event"
)

// --- in-memory test doubles ---

type memAccountStore struct {
	mu       sync.Mutex
	accounts map[string]account.Account // keyed by normalized email
	saves    int
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{accounts: make(map[string]account.Account)}
}

func (s *memAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[account.NormalizeEmail(email)]
	if !ok {
		return account.Account{}, errors.New("not found")
	}
	return a, nil
}

func (s *memAccountStore) Save(_ context.Context, a account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.accounts[account.NormalizeEmail(a.Email)] = a
	return nil
}

func (s *memAccountStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts), nil
}

type memEventStore struct {
	events []event.Event
	err    error
}

func (s *memEventStore) Save(_ context.Context, e event.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

type stubUploader struct {
	url   string
	err   error
	calls int
}

func (u *stubUploader) Upload(_ context.Context, _ string) (string, error) {
	u.calls++
	return u.url, u.err
}

type failingSender struct{}

func (failingSender) Send(context.Context, emailAdapter.Message) (string, error) {
	return "", errors.New("smtp down")
}
