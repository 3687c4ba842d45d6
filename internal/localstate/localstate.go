// Package localstate keeps small pieces of per-installation state that the
// backend does not own: yearly notes and acknowledged plan expiries.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/storage"
)

// ExpiredAcksKey stores the ids of plans whose expiry was acknowledged.
const ExpiredAcksKey = "acknowledgedExpiredPlans"

// NoteKind names the resource a note belongs to.
type NoteKind string

// Note kinds.
const (
	NoteBucket  NoteKind = "bucket"
	NotePlan    NoteKind = "plan"
	NoteAccount NoteKind = "account"
)

// ParseNoteKind validates a note kind.
func ParseNoteKind(s string) (NoteKind, error) {
	switch k := NoteKind(s); k {
	case NoteBucket, NotePlan, NoteAccount:
		return k, nil
	default:
		return "", fmt.Errorf("unknown note kind %q", s)
	}
}

// loadJSON decodes the value under key. A missing or malformed value reads
// as the zero T.
func loadJSON[T any](ctx context.Context, store storage.Store, key string) (T, error) {
	var zero T
	raw, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("failed to load %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("Discarding malformed local state")
		return zero, nil
	}
	return v, nil
}

func saveJSON(ctx context.Context, store storage.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Notes stores free text per resource and year. Writes are serialized
// within the process.
type Notes struct {
	mu    sync.Mutex
	store storage.Store
}

// NewNotes creates a note store.
func NewNotes(store storage.Store) *Notes {
	return &Notes{store: store}
}

func noteKey(kind NoteKind, id int64) string {
	return "notes:" + string(kind) + ":" + strconv.FormatInt(id, 10)
}

// Get returns the notes of a resource keyed by year.
func (n *Notes) Get(ctx context.Context, kind NoteKind, id int64) (map[string]string, error) {
	notes, err := loadJSON[map[string]string](ctx, n.store, noteKey(kind, id))
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = map[string]string{}
	}
	return notes, nil
}

// Set replaces the note for year. Empty text removes it.
func (n *Notes) Set(ctx context.Context, kind NoteKind, id int64, year int, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	notes, err := n.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	y := strconv.Itoa(year)
	if text == "" {
		delete(notes, y)
	} else {
		notes[y] = text
	}
	return saveJSON(ctx, n.store, noteKey(kind, id), notes)
}

// ExpiredAcks remembers which expired plans the user has dismissed.
type ExpiredAcks struct {
	mu    sync.Mutex
	store storage.Store
}

// NewExpiredAcks creates an acknowledgement store.
func NewExpiredAcks(store storage.Store) *ExpiredAcks {
	return &ExpiredAcks{store: store}
}

// List returns the acknowledged plan ids.
func (a *ExpiredAcks) List(ctx context.Context) ([]int64, error) {
	return loadJSON[[]int64](ctx, a.store, ExpiredAcksKey)
}

// Acknowledge records planID. It reports false when the plan was already
// acknowledged.
func (a *ExpiredAcks) Acknowledge(ctx context.Context, planID int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids, err := a.List(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(ids, planID) {
		return false, nil
	}
	if err := saveJSON(ctx, a.store, ExpiredAcksKey, append(ids, planID)); err != nil {
		return false, err
	}
	return true, nil
}
