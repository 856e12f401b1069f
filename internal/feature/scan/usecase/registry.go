package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/platform/clock"
)

// Status はスキャンジョブの状態です。
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether the job will not change anymore.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCanceled
}

// Runner executes one scan. *ScanUsecase implements it.
type Runner interface {
	RunScan(ctx context.Context, id string, p ScanParams, progress ProgressFunc) (*entity.ScanReport, error)
}

var _ Runner = (*ScanUsecase)(nil)

// Job is a snapshot of a submitted scan.
type Job struct {
	ID         string
	Params     ScanParams
	Status     Status
	Progress   Progress
	Report     *entity.ScanReport
	Error      string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

type job struct {
	Job
	cancel context.CancelFunc
}

// Registry はスキャンジョブをメモリ上で管理します。
// 同時に実行されるスキャンは1つだけで、後続はキューで待機します。
type Registry struct {
	runner  Runner
	clock   clock.Clock
	newID   func() string
	maxJobs int

	mu    sync.RWMutex
	jobs  map[string]*job
	order []string

	sem chan struct{}
	wg  sync.WaitGroup
}

// DefaultMaxJobs is how many finished jobs are kept before the oldest are evicted.
const DefaultMaxJobs = 50

// NewRegistry は Registry を生成します。maxJobs が0以下の場合は DefaultMaxJobs を使います。
func NewRegistry(runner Runner, clk clock.Clock, maxJobs int) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	return &Registry{
		runner:  runner,
		clock:   clk,
		newID:   uuid.NewString,
		maxJobs: maxJobs,
		jobs:    make(map[string]*job),
		sem:     make(chan struct{}, 1),
	}
}

// Submit validates p and queues a scan. The scan does not inherit the caller's
// context; use Cancel to stop it.
func (r *Registry) Submit(p ScanParams) (Job, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return Job{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		Job: Job{
			ID:        r.newID(),
			Params:    p,
			Status:    StatusQueued,
			CreatedAt: r.clock.Now(),
		},
		cancel: cancel,
	}

	r.mu.Lock()
	r.jobs[j.ID] = j
	r.order = append(r.order, j.ID)
	r.evictLocked()
	snap := j.Job
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, j)

	slog.Info("scan queued", "scan_id", snap.ID, "mode", p.Mode, "granularity", p.Granularity)
	return snap, nil
}

func (r *Registry) run(ctx context.Context, j *job) {
	defer r.wg.Done()
	defer j.cancel()

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		r.finish(j, nil, ctx.Err())
		return
	}
	defer func() { <-r.sem }()

	if ctx.Err() != nil {
		r.finish(j, nil, ctx.Err())
		return
	}

	r.mu.Lock()
	j.Status = StatusRunning
	j.StartedAt = r.clock.Now()
	r.mu.Unlock()

	report, err := r.runner.RunScan(ctx, j.ID, j.Params, func(p Progress) {
		r.mu.Lock()
		j.Progress = p
		r.mu.Unlock()
	})
	r.finish(j, report, err)
}

func (r *Registry) finish(j *job, report *entity.ScanReport, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j.Report = report
	j.FinishedAt = r.clock.Now()
	switch {
	case err != nil && report == nil && j.StartedAt.IsZero():
		j.Status = StatusCanceled
	case err != nil:
		j.Status = StatusFailed
		j.Error = err.Error()
		slog.Error("scan failed", "scan_id", j.ID, "error", err)
	case report != nil && report.Canceled:
		j.Status = StatusCanceled
	default:
		j.Status = StatusDone
	}
}

// Get returns a snapshot of the job with the given id.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	return j.Job, nil
}

// Cancel requests cancellation. A running scan stops after the symbol in flight.
func (r *Registry) Cancel(id string) error {
	r.mu.RLock()
	j, ok := r.jobs[id]
	var status Status
	if ok {
		status = j.Status
	}
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrScanFinished, id, status)
	}
	j.cancel()
	slog.Info("scan cancel requested", "scan_id", id)
	return nil
}

// List returns all known jobs, newest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Job)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

// Wait blocks until every submitted scan has finished.
func (r *Registry) Wait() { r.wg.Wait() }

// Shutdown cancels every unfinished scan and waits for them.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	for _, j := range r.jobs {
		j.cancel()
	}
	r.mu.RUnlock()
	r.wg.Wait()
}

// evictLocked drops the oldest finished jobs above maxJobs.
func (r *Registry) evictLocked() {
	for len(r.order) > r.maxJobs {
		evicted := false
		for i, id := range r.order {
			if r.jobs[id].Status.Terminal() {
				delete(r.jobs, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
