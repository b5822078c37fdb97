package ledger

import (
	"context"
	"errors"
	"fmt"

	"taxi-bot/internal/models"
	"taxi-bot/internal/storage"
)

var (
	ErrEmpty      = errors.New("no entries for this day")
	ErrOutOfRange = errors.New("entry index out of range")
)

// Ledger keeps one ordered bucket of entries per day. It does not check who
// is calling; authorization happens before a mutation reaches it.
type Ledger struct {
	store    *storage.Guarded
	classify func(text string) models.ZoneID
}

func New(store *storage.Guarded) *Ledger {
	return &Ledger{store: store}
}

// WithClassifier sets the zone lookup List applies to legacy entries: bare
// addresses from older storage files that carry no id and no zone.
func (l *Ledger) WithClassifier(fn func(text string) models.ZoneID) *Ledger {
	l.classify = fn
	return l
}

// Append adds e at the end of day and returns its 1-based index.
func (l *Ledger) Append(ctx context.Context, day string, e models.Entry) (int, error) {
	var entries []models.Entry
	err := l.store.Update(ctx, storage.DayKey(day), &entries, func(bool) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", day, err)
	}
	return len(entries), nil
}

// List returns the day's entries in insertion order; an absent day is empty.
func (l *Ledger) List(ctx context.Context, day string) ([]models.Entry, error) {
	var entries []models.Entry
	if _, err := l.store.Get(ctx, storage.DayKey(day), &entries); err != nil {
		return nil, fmt.Errorf("list %s: %w", day, err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	if l.classify != nil {
		for i, e := range entries {
			if e.ID == "" && !e.Zone.Known() {
				entries[i].Zone = l.classify(e.Text)
			}
		}
	}
	return entries, nil
}

// RemoveAt deletes the entry at 1-based index. Later entries shift down.
func (l *Ledger) RemoveAt(ctx context.Context, day string, index int) (models.Entry, error) {
	var (
		entries []models.Entry
		removed models.Entry
	)
	err := l.store.Update(ctx, storage.DayKey(day), &entries, func(bool) error {
		if index < 1 || index > len(entries) {
			return fmt.Errorf("%w: %d not in [1, %d]", ErrOutOfRange, index, len(entries))
		}
		removed = entries[index-1]
		entries = append(entries[:index-1], entries[index:]...)
		return nil
	})
	if err != nil {
		return models.Entry{}, fmt.Errorf("remove %s #%d: %w", day, index, err)
	}
	return removed, nil
}

// RemoveLast undoes the most recent append.
func (l *Ledger) RemoveLast(ctx context.Context, day string) (models.Entry, error) {
	var (
		entries []models.Entry
		removed models.Entry
	)
	err := l.store.Update(ctx, storage.DayKey(day), &entries, func(bool) error {
		if len(entries) == 0 {
			return ErrEmpty
		}
		removed = entries[len(entries)-1]
		entries = entries[:len(entries)-1]
		return nil
	})
	if err != nil {
		return models.Entry{}, fmt.Errorf("remove last %s: %w", day, err)
	}
	return removed, nil
}

// Clear empties the day and returns how many entries were dropped. The
// bucket itself is kept.
func (l *Ledger) Clear(ctx context.Context, day string) (int, error) {
	var (
		entries []models.Entry
		n       int
	)
	err := l.store.Update(ctx, storage.DayKey(day), &entries, func(bool) error {
		n = len(entries)
		entries = []models.Entry{}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", day, err)
	}
	return n, nil
}
