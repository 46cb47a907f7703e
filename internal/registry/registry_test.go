package registry

import (
	"fmt"
	"testing"

	"clipqueue/internal/model"
)

func snapshot(id, owner string, state model.JobState) model.Job {
	return model.Job{ID: id, Owner: owner, State: state}
}

func TestPutAndGet(t *testing.T) {
	reg := New(10)
	reg.Put(snapshot("job-1", "user-1", model.StateQueued))

	job, ok := reg.Get("job-1")
	if !ok {
		t.Fatal("Expected job to exist")
	}
	if job.Owner != "user-1" {
		t.Errorf("Expected owner user-1, got %s", job.Owner)
	}

	if _, ok := reg.Get("missing"); ok {
		t.Error("Expected missing job to not exist")
	}
}

func TestPut_UpdatesSnapshot(t *testing.T) {
	reg := New(10)
	reg.Put(snapshot("job-1", "user-1", model.StateQueued))
	reg.Put(snapshot("job-1", "user-1", model.StateRunning))

	job, _ := reg.Get("job-1")
	if job.State != model.StateRunning {
		t.Errorf("Expected Running after update, got %s", job.State)
	}

	// Updating must not duplicate the owner index entry.
	if jobs := reg.OwnerJobs("user-1"); len(jobs) != 1 {
		t.Errorf("Expected 1 job for owner, got %d", len(jobs))
	}
}

func TestOwnerJobs_OldestFirst(t *testing.T) {
	reg := New(10)
	reg.Put(snapshot("job-1", "user-1", model.StateQueued))
	reg.Put(snapshot("job-2", "user-2", model.StateQueued))
	reg.Put(snapshot("job-3", "user-1", model.StateRunning))

	jobs := reg.OwnerJobs("user-1")
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs for user-1, got %d", len(jobs))
	}
	if jobs[0].ID != "job-1" || jobs[1].ID != "job-3" {
		t.Errorf("Expected oldest-first order, got %s, %s", jobs[0].ID, jobs[1].ID)
	}
}

func TestPut_TerminalEvictsOldestFirst(t *testing.T) {
	reg := New(2)

	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("job-%d", i)
		reg.Put(snapshot(id, "user-1", model.StateQueued))
		reg.Put(snapshot(id, "user-1", model.StateSucceeded))
	}

	if _, ok := reg.Get("job-1"); ok {
		t.Error("Oldest terminal job should be evicted")
	}
	if _, ok := reg.Get("job-2"); !ok {
		t.Error("job-2 should be retained")
	}
	if _, ok := reg.Get("job-3"); !ok {
		t.Error("job-3 should be retained")
	}

	if len(reg.OwnerJobs("user-1")) != 2 {
		t.Error("Owner index should shrink with eviction")
	}
}

func TestPut_TerminalRecordedOnce(t *testing.T) {
	reg := New(1)
	reg.Put(snapshot("job-1", "user-1", model.StateFailed))
	// Re-putting a terminal snapshot must not occupy another retention slot.
	reg.Put(snapshot("job-1", "user-1", model.StateFailed))
	reg.Put(snapshot("job-2", "user-1", model.StateFailed))

	if _, ok := reg.Get("job-1"); ok {
		t.Error("job-1 should be evicted by job-2")
	}
	if _, ok := reg.Get("job-2"); !ok {
		t.Error("job-2 should be retained")
	}
}

func TestPut_ActiveJobsNeverEvicted(t *testing.T) {
	reg := New(1)
	reg.Put(snapshot("job-1", "user-1", model.StateRunning))
	reg.Put(snapshot("job-2", "user-1", model.StateSucceeded))
	reg.Put(snapshot("job-3", "user-1", model.StateSucceeded))

	if _, ok := reg.Get("job-1"); !ok {
		t.Error("Active job must never be evicted")
	}
}

func TestActiveCount(t *testing.T) {
	reg := New(10)
	reg.Put(snapshot("job-1", "user-1", model.StateQueued))
	reg.Put(snapshot("job-2", "user-1", model.StateRunning))
	reg.Put(snapshot("job-3", "user-1", model.StateSucceeded))

	if count := reg.ActiveCount(); count != 2 {
		t.Errorf("Expected 2 active jobs, got %d", count)
	}
}
