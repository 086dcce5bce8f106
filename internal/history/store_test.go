package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/storage"
)

var errUnavailable = errors.New("connection refused")

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errUnavailable }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errUnavailable
}

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 10, 30, 0, 0, time.UTC)
}

func monday(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleFinding(summary string, at time.Time) model.Finding {
	return model.Finding{
		Project:              model.ProjectCreatorKit,
		Category:             model.CategoryPainPoints,
		MostImportantInsight: summary,
		KeyFindings:          []string{"first finding", "second finding"},
		Sources:              []model.Source{{Title: "Source 1", URL: "https://a.example"}},
		CreatedAt:            at,
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{in: day(10, 15), want: monday(10, 12)},
		{in: day(10, 18), want: monday(10, 12)},
		{in: day(10, 12), want: monday(10, 12)},
		{in: day(11, 1), want: monday(10, 26)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in, time.UTC), tt.in.Weekday().String())
	}
}

func TestAppendCreatesAndExtendsWeek(t *testing.T) {
	ctx := context.Background()
	now := day(10, 15)
	primary := storage.NewMemory()
	s := New(primary, nil, WithClock(func() time.Time { return now }))

	first := s.Append(ctx, []model.Finding{sampleFinding("payouts are slow", now)})
	require.True(t, first.IsOK(), first.Reason())
	require.Len(t, first.Value(), 1)
	assert.Equal(t, monday(10, 12), first.Value()[0].WeekStart)

	now = day(10, 16)
	second := s.Append(ctx, []model.Finding{sampleFinding("rate cards confuse creators", now)})
	require.True(t, second.IsOK())
	require.Len(t, second.Value(), 1)
	assert.Len(t, second.Value()[0].Entries, 2)

	loaded := s.Load(ctx)
	require.True(t, loaded.IsOK())
	require.Len(t, loaded.Value(), 1)
	entry := loaded.Value()[0].Entries[1]
	assert.Equal(t, "rate cards confuse creators", entry.Summary)
	assert.Equal(t, []string{"https://a.example"}, entry.Sources)
}

func TestSavePrunesToThreeWeeks(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory(), nil)

	window := Window{
		{WeekStart: monday(9, 21)},
		{WeekStart: monday(10, 12)},
		{WeekStart: monday(9, 28)},
		{WeekStart: monday(10, 5)},
	}

	saved := s.Save(ctx, window)
	require.True(t, saved.IsOK())
	require.Len(t, saved.Value(), 3)
	assert.Equal(t, monday(10, 12), saved.Value()[0].WeekStart)
	assert.Equal(t, monday(9, 28), saved.Value()[2].WeekStart)

	again := s.Save(ctx, saved.Value())
	assert.Equal(t, saved.Value(), again.Value())
	assert.Len(t, window, 4)
}

func TestAppendDropsOldestWeek(t *testing.T) {
	ctx := context.Background()
	primary := storage.NewMemory()
	now := day(10, 15)
	s := New(primary, nil, WithClock(func() time.Time { return now }))

	require.NoError(t, storage.SetJSON(ctx, primary, Key, Window{
		{WeekStart: monday(9, 21)},
		{WeekStart: monday(9, 28)},
		{WeekStart: monday(10, 5)},
	}, 0))

	res := s.Append(ctx, []model.Finding{sampleFinding("new week", now)})

	require.Len(t, res.Value(), 3)
	assert.Equal(t, monday(10, 12), res.Value()[0].WeekStart)
	for _, w := range res.Value() {
		assert.NotEqual(t, monday(9, 21), w.WeekStart)
	}
}

func TestLoadEmptyWhenNothingStored(t *testing.T) {
	res := New(storage.NewMemory(), nil).Load(context.Background())

	assert.True(t, res.IsOK())
	assert.Empty(t, res.Value())
}

func TestLoadFallsBackToMirror(t *testing.T) {
	ctx := context.Background()
	mirror := NewMarkdownMirror(filepath.Join(t.TempDir(), "HISTORY.md"))
	require.NoError(t, mirror.Write(Window{{
		WeekStart: monday(10, 12),
		Entries:   []model.HistoryEntry{{Date: monday(10, 13), Project: model.ProjectNewsletter, Summary: "from mirror"}},
	}}))

	res := New(brokenStore{}, mirror).Load(ctx)

	require.True(t, res.IsDegraded())
	require.Len(t, res.Value(), 1)
	assert.Equal(t, "from mirror", res.Value()[0].Entries[0].Summary)
	assert.Contains(t, res.Reason(), "connection refused")
}

func TestLoadDegradesToEmpty(t *testing.T) {
	res := New(brokenStore{}, nil).Load(context.Background())

	assert.True(t, res.IsDegraded())
	assert.Empty(t, res.Value())
}

func TestSaveSurvivesBrokenBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mirror := NewMarkdownMirror(filepath.Join(dir, "HISTORY.md"))
	window := Window{{WeekStart: monday(10, 12)}}

	res := New(brokenStore{}, mirror).Save(ctx, window)
	assert.True(t, res.IsDegraded())
	assert.Len(t, res.Value(), 1)

	_, err := os.Stat(filepath.Join(dir, "HISTORY.md"))
	assert.NoError(t, err)

	readOnly := NewMarkdownMirror(filepath.Join(dir, "missing-dir", "HISTORY.md"))
	res = New(storage.NewMemory(), readOnly).Save(ctx, window)
	assert.True(t, res.IsOK())
}

func TestMarkdownMirrorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HISTORY.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nkept above\n"), 0o644))

	window := Window{
		{
			WeekStart: monday(10, 12),
			Entries: []model.HistoryEntry{
				{
					Date:        monday(10, 14),
					Project:     model.ProjectCreatorKit,
					Category:    model.CategoryTrends,
					Summary:     "Brands ask for\nverified stats",
					KeyFindings: []string{"stats matter", "screenshots are distrusted"},
					Sources:     []string{"https://a.example/1"},
				},
			},
		},
		{WeekStart: monday(10, 5)},
	}

	m := NewMarkdownMirror(path)
	require.NoError(t, m.Write(window))
	require.NoError(t, m.Write(window))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(raw)
	assert.True(t, strings.HasPrefix(doc, "# Notes\n\nkept above\n"+StartMarker))
	assert.Equal(t, 1, strings.Count(doc, StartMarker))
	assert.Contains(t, doc, "## Week of 2026-10-12")
	assert.Contains(t, doc, "### CREATORKIT")
	assert.Contains(t, doc, "- **2026-10-14** [trends] Brands ask for verified stats")

	got, err := m.Read()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got[0].Entries, 1)
	e := got[0].Entries[0]
	assert.Equal(t, model.ProjectCreatorKit, e.Project)
	assert.Equal(t, model.CategoryTrends, e.Category)
	assert.Equal(t, "Brands ask for verified stats", e.Summary)
	assert.Equal(t, []string{"stats matter", "screenshots are distrusted"}, e.KeyFindings)
	assert.Equal(t, []string{"https://a.example/1"}, e.Sources)
	assert.Equal(t, monday(10, 5), got[1].WeekStart)
}

func TestMarkdownMirrorMissingFile(t *testing.T) {
	got, err := NewMarkdownMirror(filepath.Join(t.TempDir(), "none.md")).Read()

	assert.NoError(t, err)
	assert.Empty(t, got)
}
