// Package codec writes Go values to XML documents in an object store and reads
// them back.
package codec

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/solita/awsutils/core"
)

type XML struct {
	store  core.ObjectStore
	logger *slog.Logger
}

func NewXML(store core.ObjectStore, logger *slog.Logger) *XML {
	if logger == nil {
		logger = slog.Default()
	}
	return &XML{store: store, logger: logger.With("component", "xml-codec")}
}

// Save writes v as indented XML under key, or under "<TypeName>.xml" when key
// is empty.
func (c *XML) Save(ctx context.Context, v any, key string) error {
	if key == "" {
		name, err := DefaultKey(v)
		if err != nil {
			return err
		}
		key = name
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to serialize %T: %w", v, err)
	}
	buf.WriteByte('\n')

	if err := c.store.Put(ctx, key, &buf); err != nil {
		return err
	}
	c.logger.Debug("Saved document", "key", key, "type", fmt.Sprintf("%T", v))
	return nil
}

// Load decodes the document under key into v, which must be a pointer. An empty
// key reads "<TypeName>.xml".
func (c *XML) Load(ctx context.Context, key string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("load target must be a non-nil pointer, got %T", v)
	}
	if key == "" {
		name, err := DefaultKey(v)
		if err != nil {
			return err
		}
		key = name
	}

	r, err := c.store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := xml.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", key, err)
	}
	c.logger.Debug("Loaded document", "key", key, "type", fmt.Sprintf("%T", v))
	return nil
}

// DefaultKey names the document after the value's type, ignoring pointers.
func DefaultKey(v any) (string, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "", fmt.Errorf("cannot derive document name for unnamed type %T", v)
	}
	return t.Name() + ".xml", nil
}
