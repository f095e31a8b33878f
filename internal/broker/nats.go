package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const streamName = "DONATIONS"

// streamSubjects covers every routing key the outbox relays.
var streamSubjects = []string{"donation.>", "payment.>"}

// NATSPublisher publishes outbox payloads to JetStream. The PubAck returned
// by JetStream is the broker acknowledgment the outbox publisher waits for
// before flipping a record to published.
type NATSPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewNATSPublisher connects to NATS and ensures the donation stream exists.
func NewNATSPublisher(url string, logger *zap.Logger) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	p := &NATSPublisher{
		conn:   conn,
		js:     js,
		logger: logger,
	}

	if err := p.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	return p, nil
}

func (p *NATSPublisher) ensureStream() error {
	_, err := p.js.StreamInfo(streamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", streamName, err)
	}

	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: streamSubjects,
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	p.logger.Info("created JetStream stream", zap.String("stream", streamName))
	return nil
}

// Publish sends one payload to its subject and waits for the PubAck.
func (p *NATSPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if _, err := p.js.Publish(routingKey, payload, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}
	return nil
}

// Close drains the connection, letting buffered publishes flush.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", zap.Error(err))
	}
}
