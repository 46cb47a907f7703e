package scheduler

import "time"

// movingAverage is a simple moving average over the most recent job
// durations, seeded with a default before any history exists.
// Not goroutine-safe; the scheduler guards it with its own mutex.
type movingAverage struct {
	seed    time.Duration
	samples []time.Duration
	next    int
	full    bool
}

func newMovingAverage(seed time.Duration, size int) *movingAverage {
	if size <= 0 {
		size = 20
	}
	return &movingAverage{seed: seed, samples: make([]time.Duration, size)}
}

func (a *movingAverage) record(d time.Duration) {
	a.samples[a.next] = d
	a.next++
	if a.next == len(a.samples) {
		a.next = 0
		a.full = true
	}
}

func (a *movingAverage) value() time.Duration {
	n := a.next
	if a.full {
		n = len(a.samples)
	}
	if n == 0 {
		return a.seed
	}

	var sum time.Duration
	for _, s := range a.samples[:n] {
		sum += s
	}
	return sum / time.Duration(n)
}
