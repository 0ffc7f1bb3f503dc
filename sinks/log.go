package sinks

import (
	"context"
	"io"
	"log/slog"

	"github.com/solita/awsutils/core"
)

// LoggingSink logs every object access and passes it on to the wrapped store.
type LoggingSink struct {
	next   core.ObjectStore
	logger *slog.Logger
}

func (s *LoggingSink) Put(ctx context.Context, key string, data io.Reader) error {
	err := s.next.Put(ctx, key, data)
	if err != nil {
		s.logger.Error("Failed to store object", "key", key, "error", err)
		return err
	}
	s.logger.Info("Stored object", "key", key)
	return nil
}

func (s *LoggingSink) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.next.Get(ctx, key)
	if err != nil {
		s.logger.Error("Failed to load object", "key", key, "error", err)
		return nil, err
	}
	s.logger.Info("Loaded object", "key", key)
	return r, nil
}

var _ core.ObjectStore = (*LoggingSink)(nil)

func NewLogging(next core.ObjectStore, logger *slog.Logger) *LoggingSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingSink{next: next, logger: logger.With("component", "store")}
}
