package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// NoopSender logs and keeps messages instead of delivering them.
type NoopSender struct {
	mu   sync.Mutex
	sent []Message
}

// NewNoopSender returns an empty NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send records msg.
func (s *NoopSender) Send(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	slog.Info("email_event", "event", "sent", "provider", "noop", "to", msg.To, "subject", msg.Subject)
	return fmt.Sprintf("noop-%d", len(s.sent)), nil
}

// Sent returns a copy of every recorded message.
func (s *NoopSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
