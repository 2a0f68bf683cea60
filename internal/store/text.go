package store

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

// DefaultKey is the identifier the raw text is stored under.
const DefaultKey = "json-editor-content"

// TextStore holds the raw JSON text of one editor and persists every change.
type TextStore struct {
	kv     KV
	key    string
	text   string
	logger *slog.Logger
}

// NewTextStore returns a TextStore writing to kv under key.
func NewTextStore(kv KV, key string, logger *slog.Logger) *TextStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStore{kv: kv, key: key, logger: logger}
}

// Key returns the storage identifier.
func (s *TextStore) Key() string { return s.key }

// Load reads the persisted text. Absent, unreadable or non UTF-8 values fall
// back to fallback, which is not written until the first change.
func (s *TextStore) Load(ctx context.Context, fallback string) string {
	value, ok, err := s.kv.Get(ctx, s.key)
	switch {
	case err != nil:
		s.logger.Warn("failed to load stored text, using default", "key", s.key, "error", err)
		s.text = fallback
	case !ok:
		s.logger.Debug("no stored text, using default", "key", s.key)
		s.text = fallback
	case !utf8.ValidString(value):
		s.logger.Warn("stored text is not valid UTF-8, using default", "key", s.key)
		s.text = fallback
	default:
		s.text = value
	}
	return s.text
}

// Text returns the current raw text.
func (s *TextStore) Text() string { return s.text }

// Set replaces the raw text and persists it. Setting the current text again
// does not write. A failed write keeps the new text in memory.
func (s *TextStore) Set(ctx context.Context, text string) error {
	if text == s.text {
		return nil
	}
	s.text = text
	if err := s.kv.Put(ctx, s.key, text); err != nil {
		s.logger.Error("failed to persist text", "key", s.key, "error", err)
		return err
	}
	s.logger.Debug("persisted text", "key", s.key, "bytes", len(text))
	return nil
}
