package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"nebula-chat/internal/model"
	"nebula-chat/internal/platform/rabbitmq"
)

type EntryWriter interface {
	Set(ctx context.Context, key, value string) error
}

// KVPersistWorker drains queued key-value writes into the backing store.
type KVPersistWorker struct {
	conn      *amqp.Connection
	target    EntryWriter
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKVPersistWorker(conn *amqp.Connection, target EntryWriter, queueName string, logger *slog.Logger) *KVPersistWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVPersistWorker{
		conn:      conn,
		target:    target,
		queueName: queueName,
		logger:    logger.With("component", "kv_persist_worker", "queue", queueName),
	}
}

func (w *KVPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Warn("drop kv write", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info("worker started")
	return nil
}

func (w *KVPersistWorker) handle(ctx context.Context, body []byte) error {
	var entry model.KVEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("decode kv entry failed: %w", err)
	}
	if entry.Key == "" {
		return fmt.Errorf("kv entry has no key")
	}
	if err := w.target.Set(ctx, entry.Key, entry.Value); err != nil {
		return fmt.Errorf("persist kv entry failed: %w", err)
	}
	return nil
}

func (w *KVPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
