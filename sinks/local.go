package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/solita/awsutils/core"
)

// LocalSink stores objects as files below a directory. Keys may contain
// slashes; missing parent directories are created. Keys that are absolute or
// climb out of the directory are rejected.
type LocalSink struct {
	path string
}

func (s *LocalSink) Put(_ context.Context, key string, data io.Reader) error {
	name, err := s.file(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", key, err)
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	_, err = io.Copy(f, data)
	if err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return f.Close()
}

func (s *LocalSink) Get(_ context.Context, key string) (io.ReadCloser, error) {
	name, err := s.file(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("object %q: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

func (s *LocalSink) file(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("object %q: %w", key, core.ErrInvalidKey)
	}
	return filepath.Join(s.path, rel), nil
}

var _ core.ObjectStore = (*LocalSink)(nil)

func NewLocal(path string) (*LocalSink, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local path %q is not a directory", path)
	}
	return &LocalSink{path: path}, nil
}
