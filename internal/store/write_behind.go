package store

import (
	"context"
	"fmt"

	"nebula-chat/internal/model"
)

// EntryPublisher hands a write to an asynchronous consumer.
type EntryPublisher interface {
	Publish(ctx context.Context, entry model.KVEntry) error
}

// WriteBehindKV reads from the backing store and publishes writes for a
// worker to apply later. Reads may briefly trail the latest write.
type WriteBehindKV struct {
	backing   KeyValue
	publisher EntryPublisher
}

func NewWriteBehindKV(backing KeyValue, publisher EntryPublisher) *WriteBehindKV {
	return &WriteBehindKV{backing: backing, publisher: publisher}
}

func (w *WriteBehindKV) Get(ctx context.Context, key string) (string, bool, error) {
	return w.backing.Get(ctx, key)
}

func (w *WriteBehindKV) Set(ctx context.Context, key, value string) error {
	if err := w.publisher.Publish(ctx, model.KVEntry{Key: key, Value: value}); err != nil {
		return fmt.Errorf("enqueue kv write failed: %w", err)
	}
	return nil
}
