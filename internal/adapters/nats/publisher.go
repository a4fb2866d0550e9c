package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

const (
	flowSubjectPrefix   = "gateflow.flow."
	ingestSubjectPrefix = "gateflow.ingest."
)

// Streams returns the JetStream streams gateflow publishes to.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "GATE_FLOWS",
			Subjects:  []string{flowSubjectPrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "GATE_INGEST",
			Subjects:  []string{ingestSubjectPrefix + ">"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishFlowComputed(ctx context.Context, event *domain.FlowEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(FlowSubject(event.Batch), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishBatchIngested(ctx context.Context, event *domain.BatchIngested) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(IngestSubject(event.Batch), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// FlowSubject is the subject a batch's flow events are published on.
func FlowSubject(batch string) string {
	return flowSubjectPrefix + subjectToken(batch)
}

// IngestSubject is the subject announcing a newly staged batch.
func IngestSubject(batch string) string {
	return ingestSubjectPrefix + subjectToken(batch)
}

// subjectToken turns a batch label into a single subject token. Dots,
// wildcards and whitespace are replaced.
func subjectToken(batch string) string {
	if batch == "" {
		return "inline"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, batch)
}

func connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("gateflow"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
