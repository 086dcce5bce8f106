package job

import (
	"sync"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

// Board remembers the last result of each job type for status display.
type Board struct {
	mu   sync.RWMutex
	last map[model.JobType]model.JobResult
}

func NewBoard() *Board {
	return &Board{last: make(map[model.JobType]model.JobResult)}
}

func (b *Board) Record(res model.JobResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res.Errors = append([]string(nil), res.Errors...)
	b.last[res.JobType] = res
}

func (b *Board) Last(jobType model.JobType) (model.JobResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res, ok := b.last[jobType]
	return res, ok
}
