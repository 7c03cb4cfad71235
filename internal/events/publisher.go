package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storesync/internal/logger"

	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by product id, so every request for
// one product lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	logger *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Logger:       kafka.LoggerFunc(logger.Printf),
		ErrorLogger:  kafka.LoggerFunc(logger.Printf),
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := Encode(e)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for product %s: %w", e.Type, e.ProductID, err)
	}

	p.logger.Debug("Published %s for product %s", e.Type, e.ProductID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Encode turns e into a Kafka message keyed by product id.
func Encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(e.ProductID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(e.ID)},
			{Key: "type", Value: []byte(e.Type)},
		},
		Time: e.Timestamp,
	}, nil
}

// Decode parses a message produced by Encode.
func Decode(msg kafka.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.ProductID == "" {
		e.ProductID = string(msg.Key)
	}
	return e, nil
}
