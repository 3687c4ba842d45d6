// Package activitylog keeps a capped, newest-first audit trail of confirmed
// user actions per domain, persisted through a storage.Store.
package activitylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/storage"
)

// MaxEntries bounds the length of every log.
const MaxEntries = 500

const dateLayout = "2006-01-02"

// Entry is one recorded action. SubjectID may refer to a deleted subject.
type Entry struct {
	ID          string           `json:"id"`
	Date        string           `json:"date"`
	Timestamp   time.Time        `json:"timestamp"`
	SubjectName string           `json:"subjectName"`
	SubjectID   int64            `json:"subjectId"`
	Action      Action           `json:"action"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Details     string           `json:"details,omitempty"`
}

// NewEntry holds the caller-supplied fields of an entry. A zero Date means
// the current day.
type NewEntry struct {
	Date        time.Time
	SubjectName string
	SubjectID   int64
	Action      Action
	Amount      *decimal.Decimal
	Details     string
}

// Log is the activity log of one domain.
type Log struct {
	domain Domain
	store  storage.Store
	now    func() time.Time
	newID  func() string
	loc    *time.Location

	mu sync.Mutex
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Log) { l.newID = gen }
}

// WithLocation sets the zone used for entry dates and the CSV time column.
func WithLocation(loc *time.Location) Option {
	return func(l *Log) { l.loc = loc }
}

// New creates the log for domain.
func New(domain Domain, store storage.Store, opts ...Option) *Log {
	l := &Log{
		domain: domain,
		store:  store,
		now:    time.Now,
		newID:  newEntryID,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Domain returns the log's domain.
func (l *Log) Domain() Domain { return l.domain }

// Label returns the display phrase for action.
func (l *Log) Label(action Action) string { return l.domain.Label(action) }

// Entries returns the stored entries, newest first.
func (l *Log) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Append records a new entry, trims the log to MaxEntries, and persists it.
func (l *Log) Append(ctx context.Context, in NewEntry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return Entry{}, err
	}

	now := l.now().In(l.loc)
	day := in.Date
	if day.IsZero() {
		day = now
	}

	entry := Entry{
		ID:          l.newID(),
		Date:        day.Format(dateLayout),
		Timestamp:   now,
		SubjectName: in.SubjectName,
		SubjectID:   in.SubjectID,
		Action:      in.Action,
		Amount:      in.Amount,
		Details:     in.Details,
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := l.save(ctx, entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Remove deletes the entry with the given id. Removing an unknown id is not
// an error.
func (l *Log) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return l.save(ctx, kept)
}

func (l *Log) load(ctx context.Context) ([]Entry, error) {
	raw, err := l.store.Get(ctx, l.domain.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s activity log: %w", l.domain.Name, err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("domain", l.domain.Name).
			Msg("Discarding malformed activity log")
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (l *Log) save(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode %s activity log: %w", l.domain.Name, err)
	}
	if err := l.store.Set(ctx, l.domain.StorageKey, raw); err != nil {
		return fmt.Errorf("failed to save %s activity log: %w", l.domain.Name, err)
	}
	return nil
}

// ForSubject returns the entries that reference subjectID, in log order.
func ForSubject(entries []Entry, subjectID int64) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out
}
