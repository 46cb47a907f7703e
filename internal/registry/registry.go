// Package registry keeps a non-owning in-memory index of active and
// recently finished jobs for status queries. The scheduler owns the live
// job records and publishes snapshots here on every transition.
package registry

import (
	"sync"

	"clipqueue/internal/model"
)

// Registry indexes job snapshots by id and by owner. Terminal jobs are
// retained up to a bounded count and evicted oldest-first.
type Registry struct {
	mu          sync.RWMutex
	jobs        map[string]model.Job
	byOwner     map[string][]string
	terminal    []string // terminal job ids in completion order
	maxRetained int
}

const defaultMaxRetained = 100

// New creates a Registry retaining up to maxRetained terminal jobs
func New(maxRetained int) *Registry {
	if maxRetained <= 0 {
		maxRetained = defaultMaxRetained
	}
	return &Registry{
		jobs:        make(map[string]model.Job),
		byOwner:     make(map[string][]string),
		maxRetained: maxRetained,
	}
}

// Put stores the latest snapshot of a job. The first Put indexes the job
// under its owner; a snapshot that entered a terminal state joins the
// retention list, evicting the oldest terminal jobs beyond the bound.
func (r *Registry) Put(job model.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.jobs[job.ID]
	r.jobs[job.ID] = job

	if !existed {
		r.byOwner[job.Owner] = append(r.byOwner[job.Owner], job.ID)
	}

	if job.State.IsTerminal() && (!existed || !prev.State.IsTerminal()) {
		r.terminal = append(r.terminal, job.ID)
		for len(r.terminal) > r.maxRetained {
			evicted := r.terminal[0]
			r.terminal = r.terminal[1:]
			r.evict(evicted)
		}
	}
}

// Get returns the latest snapshot of the job with the given id
func (r *Registry) Get(id string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	return job, ok
}

// OwnerJobs returns all indexed snapshots for an owner, oldest first
func (r *Registry) OwnerJobs(owner string) []model.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byOwner[owner]
	out := make([]model.Job, 0, len(ids))
	for _, id := range ids {
		if job, ok := r.jobs[id]; ok {
			out = append(out, job)
		}
	}
	return out
}

// ActiveCount returns the number of indexed non-terminal jobs
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if !job.State.IsTerminal() {
			count++
		}
	}
	return count
}

// evict removes a job from both indexes. Caller holds mu.
func (r *Registry) evict(id string) {
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	delete(r.jobs, id)

	ids := r.byOwner[job.Owner]
	for i, candidate := range ids {
		if candidate == id {
			r.byOwner[job.Owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byOwner[job.Owner]) == 0 {
		delete(r.byOwner, job.Owner)
	}
}
