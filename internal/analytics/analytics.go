// Package analytics maintains process-wide usage counters and persists
// them through an injected store. Durability is best-effort: a failed
// save is logged and never blocks the job pipeline.
package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"clipqueue/internal/model"
)

// Aggregate holds the durable counters. The JSON field names match the
// analytics file layout of earlier versions of this service.
type Aggregate struct {
	TotalStarts      int            `json:"total_starts"`
	TotalDownloads   int            `json:"total_downloads"`
	DailyDownloads   map[string]int `json:"daily_downloads"`
	PlatformStats    map[string]int `json:"platform_stats"`
	UserStats        map[string]int `json:"user_stats"`
	ErrorStats       map[string]int `json:"error_stats"`
	DeliveryFailures map[string]int `json:"delivery_failures"`
	PrivateSuccess   map[string]int `json:"private_success"`
	PrivateFailures  map[string]int `json:"private_failures"`
	StartTime        time.Time      `json:"start_time"`
}

// NewAggregate returns a zeroed aggregate with all maps allocated
func NewAggregate() *Aggregate {
	return &Aggregate{
		DailyDownloads:   make(map[string]int),
		PlatformStats:    make(map[string]int),
		UserStats:        make(map[string]int),
		ErrorStats:       make(map[string]int),
		DeliveryFailures: make(map[string]int),
		PrivateSuccess:   make(map[string]int),
		PrivateFailures:  make(map[string]int),
		StartTime:        time.Now(),
	}
}

// ensureMaps allocates any maps a loaded aggregate is missing
func (a *Aggregate) ensureMaps() {
	if a.DailyDownloads == nil {
		a.DailyDownloads = make(map[string]int)
	}
	if a.PlatformStats == nil {
		a.PlatformStats = make(map[string]int)
	}
	if a.UserStats == nil {
		a.UserStats = make(map[string]int)
	}
	if a.ErrorStats == nil {
		a.ErrorStats = make(map[string]int)
	}
	if a.DeliveryFailures == nil {
		a.DeliveryFailures = make(map[string]int)
	}
	if a.PrivateSuccess == nil {
		a.PrivateSuccess = make(map[string]int)
	}
	if a.PrivateFailures == nil {
		a.PrivateFailures = make(map[string]int)
	}
}

// clone returns a deep copy
func (a *Aggregate) clone() Aggregate {
	c := *a
	c.DailyDownloads = copyMap(a.DailyDownloads)
	c.PlatformStats = copyMap(a.PlatformStats)
	c.UserStats = copyMap(a.UserStats)
	c.ErrorStats = copyMap(a.ErrorStats)
	c.DeliveryFailures = copyMap(a.DeliveryFailures)
	c.PrivateSuccess = copyMap(a.PrivateSuccess)
	c.PrivateFailures = copyMap(a.PrivateFailures)
	return c
}

func copyMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is the persistence port for the aggregate
type Store interface {
	// Load reads the last persisted aggregate; (nil, nil) if none exists.
	Load(ctx context.Context) (*Aggregate, error)
	// Save persists the aggregate.
	Save(ctx context.Context, agg *Aggregate) error
}

// Collector owns the aggregate and serializes all mutations
type Collector struct {
	mu     sync.Mutex
	agg    *Aggregate
	store  Store
	logger *zap.Logger
}

// NewCollector loads the persisted aggregate (or starts from zero) and
// wires the store for subsequent saves
func NewCollector(ctx context.Context, store Store, logger *zap.Logger) *Collector {
	agg := NewAggregate()
	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			logger.Error("failed to load analytics, starting fresh", zap.Error(err))
		} else if loaded != nil {
			loaded.ensureMaps()
			if loaded.StartTime.IsZero() {
				loaded.StartTime = time.Now()
			}
			agg = loaded
		}
	}
	return &Collector{agg: agg, store: store, logger: logger}
}

// RecordStart accounts one job entering execution. Starts minus terminal
// records is the in-flight work lost to a crash.
func (c *Collector) RecordStart(job model.Job) {
	if !job.State.IsActive() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.agg.TotalStarts++
	c.save()
}

// RecordTerminal accounts one terminal job transition and persists the
// aggregate. Non-terminal jobs are ignored.
func (c *Collector) RecordTerminal(job model.Job) {
	if !job.State.IsTerminal() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	platform := job.Platform.String()

	switch job.State {
	case model.StateSucceeded:
		c.agg.TotalDownloads++
		c.agg.DailyDownloads[job.FinishedAt.Format("2006-01-02")]++
		c.agg.PlatformStats[platform]++
		c.agg.UserStats[job.Owner]++
		if job.Artifact != nil && job.Artifact.Private {
			c.agg.PrivateSuccess[platform]++
		}
	case model.StateFailed:
		if job.FailureKind == model.FailureDelivery {
			// A valid artifact existed; keep this apart from extraction errors.
			c.agg.DeliveryFailures[platform]++
		} else {
			c.agg.ErrorStats[platform]++
		}
		if job.Artifact != nil && job.Artifact.Private {
			c.agg.PrivateFailures[platform]++
		}
	}

	c.save()
}

// Snapshot returns a read-only deep copy reflecting all completed mutations
func (c *Collector) Snapshot() Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.clone()
}

// Uptime reports how long the aggregate has been accumulating
func (c *Collector) Uptime(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.agg.StartTime)
}

// Flush persists the current aggregate, used at shutdown
func (c *Collector) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.save()
}

// save persists best-effort. Caller holds mu.
func (c *Collector) save() {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.Save(ctx, c.agg); err != nil {
		c.logger.Error("failed to save analytics", zap.Error(err))
	}
}
