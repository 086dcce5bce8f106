package fetcher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/finding"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/research"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 2 * time.Second
)

// Researcher answers one research question.
type Researcher interface {
	Query(ctx context.Context, question string) (research.Response, error)
}

// Outcome is what one pass over a query list produced. Findings keep the order
// of the queries that succeeded.
type Outcome struct {
	Findings  []model.Finding
	Errors    []string
	Processed int
}

type Fetcher struct {
	researcher Researcher
	assembler  *finding.Assembler

	// Queries run concurrently within a batch; batches run one after another.
	batchSize  int
	batchDelay time.Duration
	now        func() time.Time
}

func NewFetcher(researcher Researcher, assembler *finding.Assembler, batchSize int, batchDelay time.Duration) *Fetcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchDelay < 0 {
		batchDelay = 0
	}
	if assembler == nil {
		assembler = finding.NewAssembler()
	}

	return &Fetcher{
		researcher: researcher,
		assembler:  assembler,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		now:        time.Now,
	}
}

// Process runs every query. A failing query is recorded in Outcome.Errors as
// "<query>: <error>" and never stops the others. Only a canceled context ends
// the pass early, with whatever was collected so far.
func (f *Fetcher) Process(ctx context.Context, queries []model.Query) (Outcome, error) {
	type slot struct {
		finding model.Finding
		err     error
		done    bool
	}

	slots := make([]slot, len(queries))
	batches := lo.Chunk(lo.Range(len(queries)), f.batchSize)

	for n, batch := range batches {
		if n > 0 && !sleep(ctx, f.batchDelay) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		var wg sync.WaitGroup

		for _, i := range batch {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				found, err := f.processQuery(ctx, queries[i])
				slots[i] = slot{finding: found, err: err, done: true}
			}(i)
		}

		wg.Wait()
	}

	var out Outcome
	for i, s := range slots {
		if !s.done {
			continue
		}

		out.Processed++
		if s.err != nil {
			log.Printf("[ERROR] processing query %q: %v", queries[i].Text, s.err)
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", queries[i].Text, s.err))
			continue
		}
		out.Findings = append(out.Findings, s.finding)
	}

	return out, ctx.Err()
}

func (f *Fetcher) processQuery(ctx context.Context, query model.Query) (model.Finding, error) {
	resp, err := f.researcher.Query(ctx, query.Text)
	if err != nil {
		return model.Finding{}, err
	}

	return f.assembler.Assemble(query, resp.Content, resp.Citations, f.now()), nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
