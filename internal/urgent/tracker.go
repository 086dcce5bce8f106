// Package urgent remembers the urgent items reported by the morning run so the
// evening run only alerts on what is new.
package urgent

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/result"
	"github.com/kovalyov-valentin/research-digest/internal/similarity"
	"github.com/kovalyov-valentin/research-digest/internal/storage"
)

// DefaultTTL keeps a day's record long enough for the evening run and a little beyond.
const DefaultTTL = 48 * time.Hour

func Key(date string) string {
	return "urgent-items:" + date
}

// Tracker stores one DailyUrgentItems record per calendar day. When the durable
// store is missing or failing it falls back to cache, which only lives as long
// as the process does.
type Tracker struct {
	durable storage.Store
	cache   *storage.Memory
	ttl     time.Duration
	loc     *time.Location
	now     func() time.Time
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) { t.ttl = ttl }
}

func New(durable storage.Store, cache *storage.Memory, opts ...Option) *Tracker {
	if cache == nil {
		cache = storage.NewMemory()
	}

	t := &Tracker{
		durable: durable,
		cache:   cache,
		ttl:     DefaultTTL,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) today() string {
	return t.now().In(t.loc).Format(time.DateOnly)
}

// SaveMorning starts today's record, dropping any evening data already stored.
func (t *Tracker) SaveMorning(ctx context.Context, items []model.UrgentItem) result.Result[model.DailyUrgentItems] {
	now := t.now()
	rec := model.DailyUrgentItems{
		Date:         t.today(),
		Morning:      nonNil(items),
		MorningRunAt: &now,
	}

	return t.write(ctx, rec)
}

// LoadMorning returns today's morning items. Any miss is an empty list.
func (t *Tracker) LoadMorning(ctx context.Context) result.Result[[]model.UrgentItem] {
	return result.Map(t.LoadToday(ctx), func(rec *model.DailyUrgentItems) []model.UrgentItem {
		if rec == nil {
			return []model.UrgentItem{}
		}
		return nonNil(rec.Morning)
	})
}

// SaveEvening amends today's record, keeping the morning items.
func (t *Tracker) SaveEvening(ctx context.Context, items []model.UrgentItem) result.Result[model.DailyUrgentItems] {
	rec := model.DailyUrgentItems{Date: t.today(), Morning: []model.UrgentItem{}}
	if existing := t.LoadToday(ctx).Value(); existing != nil {
		rec = *existing
	}

	now := t.now()
	rec.Evening = nonNil(items)
	rec.EveningRunAt = &now

	return t.write(ctx, rec)
}

// LoadToday returns today's record or nil.
func (t *Tracker) LoadToday(ctx context.Context) result.Result[*model.DailyUrgentItems] {
	today := t.today()
	key := Key(today)

	var durableErr error
	if t.durable != nil {
		rec, err := storage.GetJSON[model.DailyUrgentItems](ctx, t.durable, key)
		switch {
		case err == nil && rec.Date == today:
			return result.Ok(&rec)
		case err == nil, errors.Is(err, storage.ErrNotFound):
		default:
			durableErr = err
			log.Printf("[WARN] failed to load urgent items, using memory cache: %v", err)
		}
	}

	rec, err := storage.GetJSON[model.DailyUrgentItems](ctx, t.cache, key)
	found := err == nil && rec.Date == today

	switch {
	case durableErr != nil && found:
		return result.Degraded(&rec, "urgent store unavailable (%v), read memory cache", durableErr)
	case durableErr != nil:
		return result.Degraded[*model.DailyUrgentItems](nil, "urgent store unavailable: %v", durableErr)
	case found:
		return result.Ok(&rec)
	default:
		return result.Ok[*model.DailyUrgentItems](nil)
	}
}

func (t *Tracker) write(ctx context.Context, rec model.DailyUrgentItems) result.Result[model.DailyUrgentItems] {
	key := Key(rec.Date)

	if err := storage.SetJSON(ctx, t.cache, key, rec, t.ttl); err != nil {
		log.Printf("[ERROR] failed to cache urgent items: %v", err)
	}

	if t.durable == nil {
		return result.Degraded(rec, "no durable urgent store configured, kept in memory")
	}

	if err := storage.SetJSON(ctx, t.durable, key, rec, t.ttl); err != nil {
		log.Printf("[WARN] failed to save urgent items, kept in memory: %v", err)
		return result.Degraded(rec, "urgent store unavailable: %v", err)
	}

	return result.Ok(rec)
}

// FilterNew keeps evening items that do not repeat any morning item.
func FilterNew(evening, morning []model.UrgentItem) []model.UrgentItem {
	return lo.Filter(evening, func(item model.UrgentItem, _ int) bool {
		return !lo.ContainsBy(morning, func(m model.UrgentItem) bool {
			return similarity.SameUrgentItem(item, m)
		})
	})
}

func nonNil(items []model.UrgentItem) []model.UrgentItem {
	if items == nil {
		return []model.UrgentItem{}
	}
	return items
}
