package news

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
)

// Publisher pushes detected events onto the NATS bus
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewPublisher connects to NATS using the configured URL and subject
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("spxbot-news"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	return &Publisher{
		conn:    conn,
		subject: cfg.EventSubject,
		logger:  config.NewLogger("news"),
	}, nil
}

// Publish sends one event as JSON
func (p *Publisher) Publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", p.subject).
		Msg("Event published")
	return nil
}

// Close flushes pending messages and drops the connection
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
}

// Subscribe delivers decoded events from the bus to the handler. Malformed
// payloads are logged and dropped.
func Subscribe(conn *nats.Conn, subject string, handler func(Event)) (*nats.Subscription, error) {
	return conn.Subscribe(subject, eventHandler(handler))
}

func eventHandler(handler func(Event)) nats.MsgHandler {
	logger := config.NewLogger("news")
	return func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warn().Err(err).Msg("Dropping malformed event payload")
			return
		}
		handler(event)
	}
}
