// internal/common/storage/storage.go

// Package storage is the persistent key-value layer behind every facet
// store. Values are wrapped in a {data, timestamp} envelope; reads tolerate
// missing and malformed entries so callers can fall back to defaults.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "stock-backoffice/internal/common/errors"
	"stock-backoffice/internal/common/logger"
)

// ErrNotFound is returned by backends for absent keys.
var ErrNotFound = errors.New("STORAGE_KEY_NOT_FOUND")

// Backend is durable per-key byte storage.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Envelope is the persisted shape of every value.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Store reads and writes enveloped JSON values.
type Store struct {
	backend Backend
	logger  logger.Logger
	now     func() time.Time
}

func NewStore(backend Backend, log logger.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger.ForComponent(log, "storage"),
		now:     time.Now,
	}
}

// Save stores data under key with the current timestamp.
func (s *Store) Save(ctx context.Context, key string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode value", map[string]interface{}{"key": key, "error": err.Error()})
		return apperrors.NewSerializationError(err)
	}

	payload, err := json.Marshal(Envelope{Data: raw, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return apperrors.NewSerializationError(err)
	}

	if err := s.backend.Set(ctx, key, payload); err != nil {
		s.logger.Error("failed to save value", map[string]interface{}{"key": key, "error": err.Error()})
		return apperrors.NewStorageWriteError(key, err)
	}
	return nil
}

// Load decodes the value stored under key into out. It reports false when
// the key is missing, unreadable or malformed; out is left untouched then.
func (s *Store) Load(ctx context.Context, key string, out interface{}) bool {
	_, ok := s.LoadWithTimestamp(ctx, key, out)
	return ok
}

// LoadWithTimestamp is Load that also returns when the value was saved.
func (s *Store) LoadWithTimestamp(ctx context.Context, key string, out interface{}) (time.Time, bool) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to read value", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return time.Time{}, false
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn("ignoring malformed value", map[string]interface{}{"key": key, "error": err.Error()})
		return time.Time{}, false
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return time.Time{}, false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.Warn("ignoring value with unexpected shape", map[string]interface{}{"key": key, "error": err.Error()})
		return time.Time{}, false
	}
	return time.UnixMilli(env.Timestamp), true
}

// Has reports whether key holds a non-null value.
func (s *Store) Has(ctx context.Context, key string) bool {
	var discard json.RawMessage
	return s.Load(ctx, key, &discard)
}

// Clear removes key. Missing keys are not an error.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to clear value", map[string]interface{}{"key": key, "error": err.Error()})
		return apperrors.NewStorageWriteError(key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
