// Package scheduler triggers the morning and evening runs at fixed times of day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kovalyov-valentin/research-digest/internal/job"
	"github.com/kovalyov-valentin/research-digest/internal/model"
)

type JobRunner interface {
	Run(ctx context.Context, jobType model.JobType) (model.JobResult, error)
}

type Scheduler struct {
	cron    *cron.Cron
	runner  JobRunner
	entries map[model.JobType]cron.EntryID
	ctx     context.Context
}

// New schedules both runs. Times are "HH:MM" in loc; an empty time disables that run.
func New(runner JobRunner, morningAt, eveningAt string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		entries: make(map[model.JobType]cron.EntryID),
		ctx:     context.Background(),
	}

	for jobType, at := range map[model.JobType]string{model.JobMorning: morningAt, model.JobEvening: eveningAt} {
		if at == "" {
			continue
		}
		if err := s.schedule(jobType, at); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) schedule(jobType model.JobType, at string) error {
	spec, err := Spec(at)
	if err != nil {
		return fmt.Errorf("%s schedule: %w", jobType, err)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(jobType) })
	if err != nil {
		return fmt.Errorf("%s schedule: %w", jobType, err)
	}

	s.entries[jobType] = id
	return nil
}

func (s *Scheduler) run(jobType model.JobType) {
	log.Printf("scheduled %s job starting", jobType)

	if _, err := s.runner.Run(s.ctx, jobType); err != nil {
		if errors.Is(err, job.ErrAlreadyRunning) {
			log.Printf("[WARN] scheduled %s job skipped: %v", jobType, err)
			return
		}
		log.Printf("[ERROR] scheduled %s job: %v", jobType, err)
	}
}

// Start runs the schedule until ctx is canceled and waits for a running job to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()

	<-ctx.Done()

	<-s.cron.Stop().Done()
	return ctx.Err()
}

// Next returns when jobType runs next, if it is scheduled.
func (s *Scheduler) Next(jobType model.JobType) (time.Time, bool) {
	id, ok := s.entries[jobType]
	if !ok {
		return time.Time{}, false
	}

	entry := s.cron.Entry(id)
	if entry.Next.IsZero() {
		return entry.Schedule.Next(time.Now()), true
	}
	return entry.Next, true
}

// Spec turns "HH:MM" into a daily cron expression.
func Spec(at string) (string, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q, want HH:MM", at)
	}

	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
