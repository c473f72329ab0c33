package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
)

// messageWriter is the subset of kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes dispatched records to a Kafka topic, keyed by region so
// updates for one region stay on one partition.
type Publisher struct {
	writer messageWriter
}

var _ ports.RecordPublisher = (*Publisher)(nil)

// NewPublisher builds a hash-balanced writer that waits for all replicas.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka publisher needs brokers and a topic")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  5,
		Compression:  kafka.Snappy,
	}

	return &Publisher{writer: w}, nil
}

// Publish writes the record artifact as the message value.
func (p *Publisher) Publish(ctx context.Context, site string, record domain.Record) error {
	msg, err := recordMessage(site, record)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

func recordMessage(site string, record domain.Record) (kafka.Message, error) {
	value, err := record.MarshalJSON()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	return kafka.Message{
		Key:   []byte(record.RegionName),
		Value: value,
		Headers: []kafka.Header{
			{Key: "site", Value: []byte(site)},
		},
	}, nil
}
