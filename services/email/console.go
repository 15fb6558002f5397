package email

import (
	"context"
	"sync"

	"github.com/sahilchouksey/elearning-api/utils/logger"
)

// ConsoleMailer writes messages to the log instead of sending them. Sent messages are kept for inspection.
type ConsoleMailer struct {
	log *logger.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(log *logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info("email (console)",
		"to", msg.To.Address,
		"subject", msg.Subject,
		"category", msg.Category,
		"text", msg.Text,
	)

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every message passed to Send
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
