package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"storesync/internal/config"
	"storesync/internal/events"
	"storesync/internal/logger"
	"storesync/internal/worker/processors"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Worker struct {
	logger    *logger.Logger
	reader    messageReader
	processor *processors.EventProcessor
	backoff   time.Duration
}

func New(cfg *config.Config, logger *logger.Logger, processor *processors.EventProcessor) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers(),
		GroupID:        cfg.Kafka.GroupID,
		Topic:          cfg.Kafka.Topic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		Logger:         kafka.LoggerFunc(logger.Printf),
		ErrorLogger:    kafka.LoggerFunc(logger.Printf),
	})

	return &Worker{
		logger:    logger.With("topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID),
		reader:    reader,
		processor: processor,
		backoff:   time.Second,
	}
}

// Run consumes sync requests until ctx is cancelled. A message is committed
// after it has been processed, so a crash replays it.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started, listening for events...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				// reader closed
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}

		w.logger.Debug("Received message: %s", string(message.Value))

		event, err := events.Decode(message)
		if err != nil {
			w.logger.Error("Failed to parse event at offset %d: %v", message.Offset, err)
		} else if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("Failed to process event %s: %v", event.ID, err)
		} else {
			w.logger.Debug("Event %s processed successfully", event.ID)
		}

		if err := w.reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}
	}
}

func (w *Worker) Close() error {
	w.logger.Info("Stopping worker...")
	return w.reader.Close()
}

func (w *Worker) sleep(ctx context.Context) bool {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
