// Package job runs the morning digest and the evening urgent check end to end.
package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/digest"
	"github.com/kovalyov-valentin/research-digest/internal/extract"
	"github.com/kovalyov-valentin/research-digest/internal/fetcher"
	"github.com/kovalyov-valentin/research-digest/internal/finding"
	"github.com/kovalyov-valentin/research-digest/internal/history"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/result"
	"github.com/kovalyov-valentin/research-digest/internal/similarity"
	"github.com/kovalyov-valentin/research-digest/internal/urgent"
)

var (
	ErrAlreadyRunning = errors.New("job is already running")
	ErrUnknownJob     = errors.New("unknown job type")
)

type QueryProcessor interface {
	Process(ctx context.Context, queries []model.Query) (fetcher.Outcome, error)
}

type HistoryStore interface {
	Load(ctx context.Context) result.Result[history.Window]
	Append(ctx context.Context, findings []model.Finding) result.Result[history.Window]
}

type UrgentTracker interface {
	SaveMorning(ctx context.Context, items []model.UrgentItem) result.Result[model.DailyUrgentItems]
	LoadMorning(ctx context.Context) result.Result[[]model.UrgentItem]
	SaveEvening(ctx context.Context, items []model.UrgentItem) result.Result[model.DailyUrgentItems]
}

type BlogSource interface {
	Posts(ctx context.Context, project model.Project) ([]model.ExistingBlogPost, error)
}

type Composer interface {
	Compose(ctx context.Context, d digest.Digest) (digest.Message, bool)
}

type Deliverer interface {
	Deliver(ctx context.Context, msg digest.Message) error
}

// Deps are the collaborators of a Runner. Blog may be nil, then every topic
// is reported unchecked.
type Deps struct {
	Queries   func(model.JobType) []model.Query
	Processor QueryProcessor
	History   HistoryStore
	Urgent    UrgentTracker
	Blog      BlogSource
	Composer  Composer
	Deliverer Deliverer
}

type Runner struct {
	deps  Deps
	board *Board
	now   func() time.Time

	mu      sync.Mutex
	running map[model.JobType]bool
}

type Option func(*Runner)

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(deps Deps, board *Board, opts ...Option) *Runner {
	if board == nil {
		board = NewBoard()
	}

	r := &Runner{
		deps:    deps,
		board:   board,
		now:     time.Now,
		running: make(map[model.JobType]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Board() *Board {
	return r.board
}

// Run executes one job. It refuses to start a job type that is already in progress.
func (r *Runner) Run(ctx context.Context, jobType model.JobType) (model.JobResult, error) {
	if !r.acquire(jobType) {
		return model.JobResult{}, fmt.Errorf("%s: %w", jobType, ErrAlreadyRunning)
	}
	defer r.release(jobType)

	queries, err := r.plan(jobType).Unwrap()
	if err != nil {
		return model.JobResult{}, err
	}

	var res model.JobResult
	if jobType == model.JobMorning {
		res = r.morning(ctx, queries)
	} else {
		res = r.evening(ctx, queries)
	}

	r.board.Record(res)
	log.Printf("%s job finished: success=%v processed=%d urgent=%d sent=%v errors=%d",
		jobType, res.Success, res.QueriesProcessed, res.UrgentItemsFound, res.EmailSent, len(res.Errors))

	return res, nil
}

func (r *Runner) RunMorning(ctx context.Context) (model.JobResult, error) {
	return r.Run(ctx, model.JobMorning)
}

func (r *Runner) RunEvening(ctx context.Context) (model.JobResult, error) {
	return r.Run(ctx, model.JobEvening)
}

func (r *Runner) acquire(jobType model.JobType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running[jobType] {
		return false
	}
	r.running[jobType] = true
	return true
}

func (r *Runner) release(jobType model.JobType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, jobType)
}

// plan picks the queries of a job. An unknown job type is fatal; an empty
// query set still runs and reports itself as degraded.
func (r *Runner) plan(jobType model.JobType) result.Result[[]model.Query] {
	if jobType != model.JobMorning && jobType != model.JobEvening {
		return result.Fatal[[]model.Query](fmt.Errorf("%w %q", ErrUnknownJob, jobType))
	}

	queries := r.deps.Queries(jobType)
	if len(queries) == 0 {
		planned := result.Degraded(queries, "no %s queries configured", jobType)
		logDegraded("job plan", planned)
		return planned
	}

	return result.Ok(queries)
}

func (r *Runner) morning(ctx context.Context, queries []model.Query) model.JobResult {
	now := r.now()
	res := model.JobResult{JobType: model.JobMorning, Timestamp: now, Errors: []string{}}

	out := r.process(ctx, model.JobMorning, queries, &res)

	loaded := r.deps.History.Load(ctx)
	logDegraded("history load", loaded)

	unique, duplicates := similarity.Partition(out.Findings, loaded.Value())
	for _, d := range duplicates {
		log.Printf("skipping finding for %q, already reported in week of %s (%s %.2f)",
			d.Finding.Query, d.Match.WeekStart.Format(time.DateOnly), d.Match.By, d.Match.Score)
	}

	topics := r.blogTopics(ctx, unique)

	logDegraded("history append", r.deps.History.Append(ctx, unique))

	items := urgentItems(out.Findings)
	res.UrgentItemsFound = len(items)
	logDegraded("urgent morning save", r.deps.Urgent.SaveMorning(ctx, items))

	d := digest.Digest{
		JobType:     model.JobMorning,
		Date:        now,
		Findings:    unique,
		Duplicates:  len(duplicates),
		BlogTopics:  topics,
		UrgentItems: items,
		Errors:      res.Errors,
	}
	res.EmailSent = r.deliver(ctx, d, &res)

	res.Success = res.EmailSent && fewErrors(res)
	return res
}

func (r *Runner) evening(ctx context.Context, queries []model.Query) model.JobResult {
	now := r.now()
	res := model.JobResult{JobType: model.JobEvening, Timestamp: now, Errors: []string{}}

	out := r.process(ctx, model.JobEvening, queries, &res)

	findings := lo.Reject(out.Findings, func(f model.Finding, _ int) bool {
		return extract.NothingNew(f.RawText)
	})

	items := urgentItems(findings)
	res.UrgentItemsFound = len(items)

	morning := r.deps.Urgent.LoadMorning(ctx)
	logDegraded("urgent morning load", morning)

	fresh := urgent.FilterNew(items, morning.Value())
	logDegraded("urgent evening save", r.deps.Urgent.SaveEvening(ctx, items))

	if len(fresh) == 0 {
		log.Printf("evening check found nothing new (%d urgent items already reported)", len(items))
		res.Success = fewErrors(res)
		return res
	}

	d := digest.Digest{
		JobType:     model.JobEvening,
		Date:        now,
		UrgentItems: fresh,
		Errors:      res.Errors,
	}
	res.EmailSent = r.deliver(ctx, d, &res)

	res.Success = res.EmailSent && fewErrors(res)
	return res
}

func (r *Runner) process(ctx context.Context, jobType model.JobType, queries []model.Query, res *model.JobResult) fetcher.Outcome {
	out, err := r.deps.Processor.Process(ctx, queries)
	if err != nil {
		log.Printf("[ERROR] %s queries interrupted: %v", jobType, err)
		res.Errors = append(res.Errors, fmt.Sprintf("interrupted: %v", err))
	}

	res.QueriesProcessed = out.Processed
	res.Errors = append(res.Errors, out.Errors...)
	return out
}

func (r *Runner) deliver(ctx context.Context, d digest.Digest, res *model.JobResult) bool {
	msg, fallback := r.deps.Composer.Compose(ctx, d)
	if fallback {
		log.Printf("[WARN] %s digest rendered without formatter", d.JobType)
	}

	if err := r.deps.Deliverer.Deliver(ctx, msg); err != nil {
		log.Printf("[ERROR] failed to deliver %s digest: %v", d.JobType, err)
		res.Errors = append(res.Errors, fmt.Sprintf("delivery: %v", err))
		return false
	}

	return true
}

// fewErrors holds when fewer than half of the processed queries failed.
func fewErrors(res model.JobResult) bool {
	return 2*len(res.Errors) < res.QueriesProcessed
}

func urgentItems(findings []model.Finding) []model.UrgentItem {
	return lo.FilterMap(findings, func(f model.Finding, _ int) (model.UrgentItem, bool) {
		return finding.Urgent(f)
	})
}

func logDegraded[T any](op string, r result.Result[T]) {
	if r.IsDegraded() {
		log.Printf("[WARN] %s degraded: %s", op, r.Reason())
	}
}
