// Package history keeps the rolling window of recently reported findings.
//
// History is best effort: losing it only weakens duplicate suppression, so no
// operation here returns an error that could block a digest.
package history

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/kovalyov-valentin/research-digest/internal/finding"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/result"
	"github.com/kovalyov-valentin/research-digest/internal/storage"
)

const (
	// Key is the primary store key holding the JSON window.
	Key = "research-history"
	// DefaultWeeks is how many calendar weeks the window retains.
	DefaultWeeks = 3
)

type Window = []model.WeeklyHistory

// MirrorStore is the human-readable copy of the window.
type MirrorStore interface {
	Read() (Window, error)
	Write(window Window) error
}

type Store struct {
	primary storage.Store
	mirror  MirrorStore
	weeks   int
	loc     *time.Location
	now     func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

func WithWeeks(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.weeks = n
		}
	}
}

// New builds a store. Either backend may be nil.
func New(primary storage.Store, mirror MirrorStore, opts ...Option) *Store {
	s := &Store{
		primary: primary,
		mirror:  mirror,
		weeks:   DefaultWeeks,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the window from the primary store, then the mirror, then empty.
// Week order is not guaranteed.
func (s *Store) Load(ctx context.Context) result.Result[Window] {
	var primaryErr error = errors.New("no primary store configured")

	if s.primary != nil {
		window, err := storage.GetJSON[Window](ctx, s.primary, Key)
		if err == nil {
			return result.Ok(window)
		}
		primaryErr = err
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[WARN] failed to load history from primary store: %v", err)
		}
	}

	if s.mirror != nil {
		window, err := s.mirror.Read()
		if err == nil && len(window) > 0 {
			return result.Degraded(window, "primary history unavailable (%v), loaded mirror", primaryErr)
		}
		if err != nil {
			log.Printf("[WARN] failed to read history mirror: %v", err)
		}
	}

	if errors.Is(primaryErr, storage.ErrNotFound) {
		return result.Ok(Window{})
	}

	return result.Degraded(Window{}, "history unavailable: %v", primaryErr)
}

// Save prunes the window to the most recent weeks and writes it to the primary
// store and, best effort, to the mirror.
func (s *Store) Save(ctx context.Context, window Window) result.Result[Window] {
	window = Prune(window, s.weeks)

	if s.mirror != nil {
		if err := s.mirror.Write(window); err != nil {
			log.Printf("[WARN] failed to write history mirror: %v", err)
		}
	}

	if s.primary == nil {
		return result.Degraded(window, "no primary store configured, history not persisted")
	}

	if err := storage.SetJSON(ctx, s.primary, Key, window, 0); err != nil {
		log.Printf("[ERROR] failed to save history: %v", err)
		return result.Degraded(window, "history not persisted: %v", err)
	}

	return result.Ok(window)
}

// Append records findings in the bucket of the current week.
func (s *Store) Append(ctx context.Context, findings []model.Finding) result.Result[Window] {
	loaded := s.Load(ctx)
	window := loaded.Value()

	start := WeekStart(s.now(), s.loc)
	idx := -1
	for i, week := range window {
		if sameDay(week.WeekStart.In(s.loc), start) {
			idx = i
			break
		}
	}
	if idx < 0 {
		window = append(window, model.WeeklyHistory{WeekStart: start})
		idx = len(window) - 1
	}

	for _, f := range findings {
		window[idx].Entries = append(window[idx].Entries, finding.Condense(f))
	}

	saved := s.Save(ctx, window)
	if saved.IsOK() && loaded.IsDegraded() {
		return result.Degraded(saved.Value(), "saved over partial history: %s", loaded.Reason())
	}

	return saved
}

// Prune keeps the n weeks with the latest start, newest first.
func Prune(window Window, n int) Window {
	weeks := append(Window(nil), window...)
	sort.SliceStable(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.After(weeks[j].WeekStart)
	})

	if len(weeks) > n {
		weeks = weeks[:n]
	}
	return weeks
}

// WeekStart is midnight of the Monday on or before t in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -offset)
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}
