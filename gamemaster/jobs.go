package gamemaster

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"tictactoe/experiments"
	"tictactoe/meta"
	"tictactoe/ranking"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrJobNotFound = errors.New("job not found")

type JobStatus int

const (
	JobPending JobStatus = iota
	JobRunning
	JobCompleted
	JobFailed
	JobCancelled
)

func (s JobStatus) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobCompleted:
		return "Completed"
	case JobFailed:
		return "Failed"
	case JobCancelled:
		return "Cancelled"
	default:
		return "Pending"
	}
}

func (s JobStatus) Done() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Job is a snapshot of a background self-play run.
type Job struct {
	ID          string
	Status      JobStatus
	Requested   int
	Played      int
	Summary     experiments.Summary // Partial while running or after cancellation
	Error       string
	CreatedAt   time.Time
	CompletedAt time.Time // Zero until done
}

type job struct {
	mu     sync.Mutex // Guards Job except Played
	Job
	played atomic.Int64
	cancel context.CancelFunc
	done   chan struct{}
}

func (j *job) snapshot() Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	snapshot := j.Job
	if !snapshot.Status.Done() {
		snapshot.Played = int(j.played.Load())
	}
	return snapshot
}

// JobQueue runs self-play batches in the background against a shared table.
type JobQueue struct {
	store   ranking.Store
	workers int
	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.RWMutex // Guards jobs
	jobs map[uuid.UUID]*job
}

func NewJobQueue(store ranking.Store, workers int) *JobQueue {
	if workers < 1 {
		panic("workers must be at least 1")
	}
	ctx, stop := context.WithCancel(context.Background())
	return &JobQueue{
		store:   store,
		workers: workers,
		ctx:     ctx,
		stop:    stop,
		jobs:    map[uuid.UUID]*job{},
	}
}

// Start queues n games (capped at meta.MAX_SELF_PLAY_GAMES) and returns at once.
// A nil seed draws one from the clock.
func (q *JobQueue) Start(n int, seed *uint64) Job {
	n = max(0, min(n, meta.MAX_SELF_PLAY_GAMES))
	ctx, cancel := context.WithCancel(q.ctx)
	j := &job{
		Job: Job{
			ID:        uuid.NewString(),
			Status:    JobPending,
			Requested: n,
			CreatedAt: time.Now().UTC(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	q.mu.Lock()
	q.jobs[uuid.MustParse(j.ID)] = j
	q.mu.Unlock()

	log.Info().Msgf("queued self-play job %s with %d games", j.ID, n)

	q.wg.Add(1)
	go q.run(ctx, j, seed)
	return j.snapshot()
}

func (q *JobQueue) run(ctx context.Context, j *job, seed *uint64) {
	defer q.wg.Done()
	defer close(j.done)
	defer j.cancel()

	j.mu.Lock()
	if j.Status == JobCancelled { // Cancelled before it started
		j.mu.Unlock()
		return
	}
	j.Status = JobRunning
	j.mu.Unlock()

	options := []experiments.Option{
		experiments.WithWorkers(q.workers),
		experiments.WithProgress(func(played int) { j.played.Store(int64(played)) }),
	}
	if seed != nil {
		options = append(options, experiments.WithSeed(*seed))
	}
	summary, err := experiments.RunSelfPlay(ctx, q.store, j.Requested, options...)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.Summary = summary
	j.Played = summary.Played
	j.CompletedAt = time.Now().UTC()
	switch {
	case err == nil:
		j.Status = JobCompleted
		log.Info().Msgf("completed self-play job %s: %+v", j.ID, summary)
	case errors.Is(err, context.Canceled):
		j.Status = JobCancelled
		log.Info().Msgf("cancelled self-play job %s after %d games", j.ID, summary.Played)
	default:
		j.Status = JobFailed
		j.Error = err.Error()
		log.Error().Err(err).Msgf("self-play job %s failed", j.ID)
	}
}

func (q *JobQueue) Get(id string) (Job, error) {
	j, err := q.lookup(id)
	if err != nil {
		return Job{}, err
	}
	return j.snapshot(), nil
}

// List returns every job, oldest first.
func (q *JobQueue) List() []Job {
	q.mu.RLock()
	jobs := make([]Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		jobs = append(jobs, j.snapshot())
	}
	q.mu.RUnlock()

	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
	})
	return jobs
}

// Cancel stops the job between games. Cancelling a finished job is a no-op.
func (q *JobQueue) Cancel(id string) (Job, error) {
	j, err := q.lookup(id)
	if err != nil {
		return Job{}, err
	}

	j.mu.Lock()
	if j.Status == JobPending {
		j.Status = JobCancelled
		j.CompletedAt = time.Now().UTC()
	}
	j.mu.Unlock()
	j.cancel()

	return j.snapshot(), nil
}

// Done is closed once the job has stopped running.
func (q *JobQueue) Done(id string) (<-chan struct{}, error) {
	j, err := q.lookup(id)
	if err != nil {
		return nil, err
	}
	return j.done, nil
}

// Close cancels every job and waits for them to stop.
func (q *JobQueue) Close() {
	q.stop()
	q.wg.Wait()
}

func (q *JobQueue) lookup(id string) (*job, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(ErrJobNotFound, "malformed job id %q", id)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[parsed]
	if !ok {
		return nil, errors.Wrapf(ErrJobNotFound, "job %s", parsed)
	}
	return j, nil
}
