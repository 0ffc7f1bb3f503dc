package core

import (
	"context"
	"io"
)

type MessageSource interface {
	// Fetches the next batch of pending messages. An empty batch means the queue
	// is currently empty, not that it will stay empty.
	ReceiveBatch(ctx context.Context, queueURL string) ([]Message, error)
}

type MessageSink interface {
	// Removes one received message from the queue
	Delete(ctx context.Context, queueURL, receiptHandle string) error
}

type KeyValueTable interface {
	Put(ctx context.Context, table, key, keyValue string, attrs map[string]any) error
	// Returns false when no item exists for the key
	Get(ctx context.Context, table, key, keyValue string) (Item, bool, error)
	Delete(ctx context.Context, table, key, keyValue string) error
}

type ObjectStore interface {
	// Stores object content under key. Note that data may be unseekable stream!
	Put(ctx context.Context, key string, data io.Reader) error
	// Opens the object stored under key; missing objects return ErrNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
