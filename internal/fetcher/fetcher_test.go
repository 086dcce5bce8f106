package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/research"
)

type fakeResearcher struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    []string
	fail     map[string]error
	delay    time.Duration
}

func (r *fakeResearcher) Query(ctx context.Context, question string) (research.Response, error) {
	r.mu.Lock()
	r.calls = append(r.calls, question)
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	time.Sleep(r.delay)

	if err := r.fail[question]; err != nil {
		return research.Response{}, err
	}

	return research.Response{
		Content:   "Key Findings:\n- " + question + " needs attention soon\nPriority: high",
		Citations: []string{"https://example.com/" + question},
	}, nil
}

func queries(n int) []model.Query {
	out := make([]model.Query, n)
	for i := range out {
		out[i] = model.Query{Text: fmt.Sprintf("q%02d", i), Project: model.ProjectNewsletter, Category: model.CategoryTrends}
	}
	return out
}

func TestProcessKeepsQueryOrder(t *testing.T) {
	r := &fakeResearcher{delay: 5 * time.Millisecond}
	f := NewFetcher(r, nil, 5, time.Millisecond)

	out, err := f.Process(context.Background(), queries(12))

	require.NoError(t, err)
	assert.Equal(t, 12, out.Processed)
	assert.Empty(t, out.Errors)
	require.Len(t, out.Findings, 12)
	for i, found := range out.Findings {
		assert.Equal(t, fmt.Sprintf("q%02d", i), found.Query)
		assert.Equal(t, model.PriorityHigh, found.Priority)
		assert.Equal(t, model.ProjectNewsletter, found.Project)
	}
	assert.LessOrEqual(t, r.peak, 5)
	assert.Len(t, r.calls, 12)
}

func TestProcessIsolatesFailures(t *testing.T) {
	r := &fakeResearcher{fail: map[string]error{
		"q01": errors.New("timeout"),
		"q03": research.ErrMissingAPIKey,
	}}
	f := NewFetcher(r, nil, 2, 0)

	out, err := f.Process(context.Background(), queries(4))

	require.NoError(t, err)
	assert.Equal(t, 4, out.Processed)
	assert.Equal(t, []string{
		"q01: timeout",
		"q03: research: api key is not configured",
	}, out.Errors)
	require.Len(t, out.Findings, 2)
	assert.Equal(t, "q00", out.Findings[0].Query)
	assert.Equal(t, "q02", out.Findings[1].Query)
}

func TestProcessWaitsBetweenBatches(t *testing.T) {
	f := NewFetcher(&fakeResearcher{}, nil, 2, 30*time.Millisecond)

	start := time.Now()
	_, err := f.Process(context.Background(), queries(5))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestProcessStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeResearcher{}
	f := NewFetcher(r, nil, 2, time.Hour)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out, err := f.Process(ctx, queries(6))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, out.Processed)
	assert.Len(t, out.Findings, 2)
}

func TestProcessEmpty(t *testing.T) {
	out, err := NewFetcher(&fakeResearcher{}, nil, 0, 0).Process(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, out.Processed)
	assert.Empty(t, out.Findings)
}
