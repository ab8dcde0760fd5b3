// Package scheduler runs queued link-publishing jobs on a small worker
// pool, with delayed retries for failed publishes.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"lombard-poster-bot/internal/database"
	"lombard-poster-bot/internal/database/models"
)

const (
	// MaxRetries is how many publish attempts each job gets.
	MaxRetries = 3

	defaultWorkers      = 5
	defaultPollInterval = 15 * time.Second
	defaultRetryDelay   = 5 * time.Minute
	delayBetweenLinks   = time.Minute
)

// PublishFunc publishes one URL. The scheduler treats any error as a
// failed attempt.
type PublishFunc func(ctx context.Context, url string) error

// Scheduler polls the job store for due jobs and hands them to workers.
// Jobs carry everything a worker needs; a worker never touches the
// operator's live session.
type Scheduler struct {
	repo    database.LinkJobRepository
	publish PublishFunc

	workers      int
	pollInterval time.Duration
	retryDelay   time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates a scheduler over the given job store and publish callback.
func New(repo database.LinkJobRepository, publish PublishFunc) *Scheduler {
	return &Scheduler{
		repo:         repo,
		publish:      publish,
		workers:      defaultWorkers,
		pollInterval: defaultPollInterval,
		retryDelay:   defaultRetryDelay,
		inFlight:     make(map[string]bool),
	}
}

// ScheduleLinks enqueues one job per URL, staggered a minute apart so a
// confirmed batch does not flood the channel. Returns the number queued.
func (s *Scheduler) ScheduleLinks(ctx context.Context, urls []string) (int, error) {
	queued := 0
	now := time.Now()
	for i, url := range urls {
		job := models.LinkJob{
			URL:          url,
			AttemptsLeft: MaxRetries,
			RunAt:        now.Add(time.Duration(i) * delayBetweenLinks),
		}
		id, err := s.repo.Enqueue(ctx, job)
		if err != nil {
			log.Printf("[Scheduler] Failed to enqueue %s: %v", url, err)
			return queued, err
		}
		log.Printf("[Scheduler] Queued job %s for %s at %s", id, url, job.RunAt.Format(time.RFC3339))
		queued++
	}
	return queued, nil
}

// Run polls for due jobs until the context is canceled. It blocks; start
// it on its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	jobs := make(chan models.LinkJob)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s.runJob(ctx, job)
			}
		}()
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.dispatchDue(ctx, jobs)
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context, jobs chan<- models.LinkJob) {
	due, err := s.repo.DueJobs(ctx, time.Now())
	if err != nil {
		log.Printf("[Scheduler] Failed to query due jobs: %v", err)
		return
	}
	for _, job := range due {
		s.mu.Lock()
		if s.inFlight[job.ID] {
			s.mu.Unlock()
			continue
		}
		s.inFlight[job.ID] = true
		s.mu.Unlock()

		select {
		case jobs <- job:
		case <-ctx.Done():
			s.clearInFlight(job.ID)
			return
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job models.LinkJob) {
	defer s.clearInFlight(job.ID)
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			log.Printf("[Scheduler Job:%s] Recovered from panic: %v", job.ID, r)
		}
	}()

	log.Printf("[Scheduler Job:%s] Publishing %s (%d attempts left)", job.ID, job.URL, job.AttemptsLeft)
	err := s.publish(ctx, job.URL)
	if err == nil {
		if err := s.repo.MarkDone(ctx, job.ID, models.LinkJobDone); err != nil {
			log.Printf("[Scheduler Job:%s] Failed to mark done: %v", job.ID, err)
		}
		return
	}

	log.Printf("[Scheduler Job:%s] Publish failed: %v", job.ID, err)
	if job.AttemptsLeft <= 1 {
		sentry.CaptureException(err)
		if err := s.repo.MarkDone(ctx, job.ID, models.LinkJobFailed); err != nil {
			log.Printf("[Scheduler Job:%s] Failed to mark failed: %v", job.ID, err)
		}
		return
	}
	retryAt := time.Now().Add(s.retryDelay)
	if err := s.repo.Reschedule(ctx, job.ID, retryAt, job.AttemptsLeft-1); err != nil {
		log.Printf("[Scheduler Job:%s] Failed to reschedule: %v", job.ID, err)
	}
}

func (s *Scheduler) clearInFlight(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}
