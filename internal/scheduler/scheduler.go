// Package scheduler implements the download queue engine: admission
// control, a strict FIFO queue drained by a fixed pool of workers,
// retry with alternating extraction strategies, limit enforcement,
// and terminal bookkeeping in the registry and analytics.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clipqueue/internal/analytics"
	"clipqueue/internal/extract"
	"clipqueue/internal/model"
	"clipqueue/internal/notify"
	"clipqueue/internal/platform"
	"clipqueue/internal/ratelimit"
	"clipqueue/internal/registry"
)

// Config carries the scheduling limits
type Config struct {
	MaxConcurrent    int
	MaxAttempts      int
	MaxFileSize      int64
	MaxVideoDuration time.Duration
	AttemptTimeout   time.Duration
	RetryDelay       time.Duration
	QueueCapacity    int

	// DefaultJobDuration seeds the wait estimate before any history exists
	DefaultJobDuration time.Duration

	// CookiePaths maps platforms to their cookie files for enhanced access
	CookiePaths map[model.Platform]string
}

func (c *Config) setDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.MaxVideoDuration <= 0 {
		c.MaxVideoDuration = 15 * time.Minute
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 10 * time.Minute
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	} else if c.RetryDelay == 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	if c.DefaultJobDuration <= 0 {
		c.DefaultJobDuration = 45 * time.Second
	}
}

// Scheduler accepts admitted requests and drives them to a terminal state
type Scheduler struct {
	cfg       Config
	limiter   *ratelimit.Limiter
	registry  *registry.Registry
	collector *analytics.Collector
	extractor extract.Extractor
	notifier  notify.Notifier
	relay     *notify.Relay
	logger    *zap.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*model.Job
	running int
	avg     *movingAverage

	wg sync.WaitGroup
}

// New wires a Scheduler; Start must be called before submissions run
func New(
	cfg Config,
	limiter *ratelimit.Limiter,
	reg *registry.Registry,
	collector *analytics.Collector,
	extractor extract.Extractor,
	notifier notify.Notifier,
	relay *notify.Relay,
	logger *zap.Logger,
) *Scheduler {
	cfg.setDefaults()
	s := &Scheduler{
		cfg:       cfg,
		limiter:   limiter,
		registry:  reg,
		collector: collector,
		extractor: extractor,
		notifier:  notifier,
		relay:     relay,
		logger:    logger,
		avg:       newMovingAverage(cfg.DefaultJobDuration, 20),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker pool. Workers exit once ctx is cancelled and
// their in-flight job (if any) has finished; Wait blocks until then.
func (s *Scheduler) Start(ctx context.Context) {
	for i := 0; i < s.cfg.MaxConcurrent; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		s.cond.Broadcast()
	}()
}

// Wait blocks until all workers have exited
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Submit admits, classifies, and enqueues one download request.
// It never blocks on in-flight downloads.
func (s *Scheduler) Submit(owner, url string, isAdmin bool) (*EnqueueResult, error) {
	admitted, retryAfter := s.limiter.Allow(owner, time.Now(), isAdmin)
	if !admitted {
		return nil, &Rejection{Reason: ReasonRateLimited, RetryAfter: retryAfter}
	}

	p := platform.Detect(url)
	if !p.Supported() {
		// Fail fast: no queue slot is consumed for a URL the extractor
		// can never serve.
		return nil, &Rejection{Reason: ReasonUnsupportedPlatform}
	}

	job := &model.Job{
		ID:        uuid.New().String(),
		Owner:     owner,
		URL:       url,
		Platform:  p,
		State:     model.StateQueued,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	if len(s.queue) >= s.cfg.QueueCapacity {
		s.mu.Unlock()
		return nil, &Rejection{Reason: ReasonQueueFull}
	}
	s.queue = append(s.queue, job)
	position := len(s.queue)
	wait := s.estimateLocked(position)
	snap := job.Clone()
	s.mu.Unlock()

	s.registry.Put(snap)

	// Enqueue the queued event before waking a worker so it cannot be
	// preceded by that worker's started event.
	s.relay.Send(owner, notify.Event{
		Type:          notify.EventQueued,
		JobID:         job.ID,
		Position:      position,
		EstimatedWait: wait,
	})
	s.cond.Signal()

	s.logger.Info("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("owner", owner),
		zap.String("platform", p.String()),
		zap.Int("position", position),
	)

	return &EnqueueResult{JobID: job.ID, Position: position, EstimatedWait: wait}, nil
}

// Cancel removes a still-queued job. Cancelling a running job is not
// supported: the call reports failure and the job is unaffected.
func (s *Scheduler) Cancel(jobID, owner string) bool {
	s.mu.Lock()
	idx := -1
	for i, job := range s.queue {
		if job.ID == jobID && job.Owner == owner {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	job := s.queue[idx]
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
	job.State = model.StateFailed
	job.FailureKind = model.FailureCancelled
	job.FailureReason = "Cancelled before download started."
	job.FinishedAt = time.Now()
	snap := job.Clone()
	s.mu.Unlock()

	s.registry.Put(snap)
	s.collector.RecordTerminal(snap)
	s.relay.Post(owner, notify.Event{
		Type:   notify.EventFailed,
		JobID:  job.ID,
		Reason: job.FailureReason,
	})
	return true
}

// QueueSnapshot returns the queued jobs in dispatch order
func (s *Scheduler) QueueSnapshot() []QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]QueueEntry, 0, len(s.queue))
	for i, job := range s.queue {
		out = append(out, QueueEntry{
			JobID:    job.ID,
			Owner:    job.Owner,
			Platform: job.Platform,
			Position: i + 1,
		})
	}
	return out
}

// RunningCount returns how many jobs currently hold a worker slot
func (s *Scheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// EstimatedWait returns the current wait estimate for a queue position
func (s *Scheduler) EstimatedWait(position int) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimateLocked(position)
}

// estimateLocked computes (position / workers) * average duration.
// Caller holds mu.
func (s *Scheduler) estimateLocked(position int) time.Duration {
	if position <= 0 {
		return 0
	}
	avg := s.avg.value()
	return time.Duration(float64(position) / float64(s.cfg.MaxConcurrent) * float64(avg))
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		job := s.next(ctx)
		if job == nil {
			return
		}
		s.runJob(ctx, job)

		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}
}

// next blocks until the queue head is available or ctx is cancelled
func (s *Scheduler) next(ctx context.Context) *model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && ctx.Err() == nil {
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		return nil
	}

	job := s.queue[0]
	s.queue = s.queue[1:]
	s.running++
	return job
}

func (s *Scheduler) runJob(ctx context.Context, job *model.Job) {
	s.mu.Lock()
	job.State = model.StateRunning
	job.StartedAt = time.Now()
	snap := job.Clone()
	s.mu.Unlock()

	s.registry.Put(snap)
	s.collector.RecordStart(snap)
	s.relay.Send(job.Owner, notify.Event{Type: notify.EventStarted, JobID: job.ID})

	log := s.logger.With(
		zap.String("job_id", job.ID),
		zap.String("owner", job.Owner),
		zap.String("platform", job.Platform.String()),
	)
	log.Info("download started")

	artifact, extErr := s.runAttempts(ctx, job, log)
	if extErr != nil {
		s.finish(job, model.StateFailed, failureKindOf(extErr), extErr.UserMessage())
		return
	}

	if violation := s.limitViolation(artifact); violation != "" {
		// The artifact is discarded immediately; limit violations are
		// terminal and never retried.
		s.removeArtifact(artifact, log)
		s.mu.Lock()
		job.Artifact = artifact
		s.mu.Unlock()
		log.Warn("artifact exceeds limits",
			zap.Int64("size_bytes", artifact.SizeBytes),
			zap.Int("duration_s", artifact.DurationSeconds),
		)
		s.finish(job, model.StateFailed, model.FailureLimit, violation)
		return
	}

	s.mu.Lock()
	job.Artifact = artifact
	snap = job.Clone()
	s.mu.Unlock()
	s.registry.Put(snap)

	s.relay.Send(job.Owner, notify.Event{Type: notify.EventUploadStarted, JobID: job.ID})

	deliverErr := s.notifier.Deliver(ctx, job.Owner, *artifact)
	s.removeArtifact(artifact, log)

	if deliverErr != nil {
		log.Error("artifact delivery failed", zap.Error(deliverErr))
		s.finish(job, model.StateFailed, model.FailureDelivery,
			"The video was downloaded but could not be delivered.")
		return
	}

	log.Info("download succeeded",
		zap.Int("attempts", job.Attempts),
		zap.Int64("size_bytes", artifact.SizeBytes),
	)
	s.finish(job, model.StateSucceeded, "", "")
}

// runAttempts drives the attempt ladder; extraction strategies alternate
// per attempt so a retry is never a pure repeat
func (s *Scheduler) runAttempts(ctx context.Context, job *model.Job, log *zap.Logger) (*model.Artifact, *extract.Error) {
	cookiePath := s.cfg.CookiePaths[job.Platform]
	var lastErr *extract.Error

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			s.mu.Lock()
			job.State = model.StateRetrying
			snap := job.Clone()
			s.mu.Unlock()
			s.registry.Put(snap)

			select {
			case <-time.After(s.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, extract.Classify(ctx.Err(), false)
			}
		}

		s.mu.Lock()
		job.State = model.StateRunning
		job.Attempts = attempt + 1
		snap := job.Clone()
		s.mu.Unlock()
		s.registry.Put(snap)

		req := extract.Request{
			URL:        job.URL,
			Platform:   job.Platform,
			CookiePath: cookiePath,
			Strategy:   extract.StrategyFor(attempt),
			Progress:   s.progressFunc(job),
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		artifact, err := s.extractor.Extract(attemptCtx, req)
		cancel()

		if err == nil {
			return artifact, nil
		}

		lastErr = extract.Classify(err, cookiePath != "")
		log.Warn("extraction attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("strategy", string(req.Strategy)),
			zap.String("kind", string(lastErr.Kind)),
			zap.Bool("retryable", lastErr.Retryable),
		)
		if !lastErr.Retryable {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// progressFunc throttles progress snapshots to 10% steps before they
// reach the notify buffer
func (s *Scheduler) progressFunc(job *model.Job) func(percent int, rate string) {
	last := -10
	return func(percent int, rate string) {
		s.mu.Lock()
		job.Progress = model.Progress{Percent: percent, Rate: rate}
		emit := percent != last && (percent-last >= 10 || percent >= 99)
		if emit {
			last = percent
		}
		snap := job.Clone()
		s.mu.Unlock()

		if emit {
			s.registry.Put(snap)
			s.relay.Send(job.Owner, notify.Event{
				Type:    notify.EventProgress,
				JobID:   job.ID,
				Percent: percent,
				Rate:    rate,
			})
		}
	}
}

// finish records the terminal transition exactly once per job
func (s *Scheduler) finish(job *model.Job, state model.JobState, kind, reason string) {
	s.mu.Lock()
	job.State = state
	job.FinishedAt = time.Now()
	job.FailureKind = kind
	job.FailureReason = reason
	if state == model.StateSucceeded {
		s.avg.record(job.FinishedAt.Sub(job.StartedAt))
	}
	snap := job.Clone()
	s.mu.Unlock()

	s.registry.Put(snap)
	s.collector.RecordTerminal(snap)

	event := notify.Event{JobID: job.ID}
	if state == model.StateSucceeded {
		event.Type = notify.EventSucceeded
		event.Artifact = snap.Artifact
	} else {
		event.Type = notify.EventFailed
		event.Reason = reason
	}
	// Terminal events wait for buffer space: every job yields exactly one
	// final message, even when shutdown began mid-download.
	s.relay.Post(job.Owner, event)
}

// limitViolation returns the user-facing reason when the artifact breaks
// the size or duration ceiling, or "" when it fits
func (s *Scheduler) limitViolation(artifact *model.Artifact) string {
	if artifact.SizeBytes > s.cfg.MaxFileSize {
		return fmt.Sprintf("Video too large (%s). Maximum allowed: %dMB.",
			artifact.SizeHuman(), s.cfg.MaxFileSize/(1024*1024))
	}
	if time.Duration(artifact.DurationSeconds)*time.Second > s.cfg.MaxVideoDuration {
		return fmt.Sprintf("Video too long (%dm %ds). Maximum allowed: %d minutes.",
			artifact.DurationSeconds/60, artifact.DurationSeconds%60,
			int(s.cfg.MaxVideoDuration.Minutes()))
	}
	return ""
}

func (s *Scheduler) removeArtifact(artifact *model.Artifact, log *zap.Logger) {
	if artifact == nil || artifact.Path == "" {
		return
	}
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove artifact", zap.String("path", artifact.Path), zap.Error(err))
	}
}

func failureKindOf(err *extract.Error) string {
	if err.Retryable {
		return model.FailureTransient
	}
	return model.FailurePermanent
}
