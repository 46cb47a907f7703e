package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clipqueue/internal/model"
	"clipqueue/internal/scheduler"
)

type submitRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	URL     string `json:"url" binding:"required"`
}

type jobView struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	URL             string        `json:"url"`
	Platform        string        `json:"platform"`
	State           string        `json:"state"`
	Attempts        int           `json:"attempts"`
	ProgressPercent int           `json:"progress_percent"`
	CreatedAt       time.Time     `json:"created_at"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	FinishedAt      *time.Time    `json:"finished_at,omitempty"`
	FailureKind     string        `json:"failure_kind,omitempty"`
	FailureReason   string        `json:"failure_reason,omitempty"`
	Artifact        *artifactView `json:"artifact,omitempty"`
}

type artifactView struct {
	Title           string `json:"title"`
	AuthorHandle    string `json:"author_handle,omitempty"`
	SizeBytes       int64  `json:"size_bytes"`
	DurationSeconds int    `json:"duration_seconds"`
	Private         bool   `json:"private"`
}

func viewOf(job model.Job) jobView {
	v := jobView{
		ID:              job.ID,
		OwnerID:         job.Owner,
		URL:             job.URL,
		Platform:        job.Platform.String(),
		State:           job.State.String(),
		Attempts:        job.Attempts,
		ProgressPercent: job.Progress.Percent,
		CreatedAt:       job.CreatedAt,
		FailureKind:     job.FailureKind,
		FailureReason:   job.FailureReason,
	}
	if !job.StartedAt.IsZero() {
		t := job.StartedAt
		v.StartedAt = &t
	}
	if !job.FinishedAt.IsZero() {
		t := job.FinishedAt
		v.FinishedAt = &t
	}
	if job.Artifact != nil {
		v.Artifact = &artifactView{
			Title:           job.Artifact.Title,
			AuthorHandle:    job.Artifact.AuthorHandle,
			SizeBytes:       job.Artifact.SizeBytes,
			DurationSeconds: job.Artifact.DurationSeconds,
			Private:         job.Artifact.Private,
		}
	}
	return v
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(s.collector.Uptime(time.Now()).Seconds()),
	})
}

func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id and url are required"})
		return
	}

	result, err := s.sched.Submit(req.OwnerID, req.URL, s.isAdmin(req.OwnerID))
	if err != nil {
		var rejection *scheduler.Rejection
		if errors.As(err, &rejection) {
			switch rejection.Reason {
			case scheduler.ReasonRateLimited:
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":               "rate limit exceeded",
					"retry_after_seconds": int(rejection.RetryAfter.Seconds()) + 1,
				})
			case scheduler.ReasonQueueFull:
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue is full, try again later"})
			case scheduler.ReasonUnsupportedPlatform:
				c.JSON(http.StatusBadRequest, gin.H{
					"error":               "unsupported platform",
					"supported_platforms": supportedPlatforms(),
				})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": rejection.Error()})
			}
			return
		}
		s.logger.Error("submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":                 result.JobID,
		"position":               result.Position,
		"estimated_wait_seconds": int(result.EstimatedWait.Seconds()),
	})
}

func (s *Server) getJob(c *gin.Context) {
	job, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, viewOf(job))
}

func (s *Server) cancelJob(c *gin.Context) {
	owner := c.Query("owner_id")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	if !s.sched.Cancel(c.Param("id"), owner) {
		c.JSON(http.StatusConflict, gin.H{"error": "job is not queued"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (s *Server) getQueue(c *gin.Context) {
	entries := s.sched.QueueSnapshot()
	out := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		out = append(out, gin.H{
			"job_id":                 entry.JobID,
			"owner_id":               entry.Owner,
			"platform":               entry.Platform.String(),
			"position":               entry.Position,
			"estimated_wait_seconds": int(s.sched.EstimatedWait(entry.Position).Seconds()),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"queued":  out,
		"running": s.sched.RunningCount(),
	})
}

func (s *Server) userStatus(c *gin.Context) {
	owner := c.Param("id")

	jobs := s.registry.OwnerJobs(owner)
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, viewOf(job))
	}

	c.JSON(http.StatusOK, gin.H{
		"owner_id":           owner,
		"remaining_requests": s.limiter.Remaining(owner, time.Now()),
		"request_limit":      s.limiter.Limit(),
		"window_seconds":     int(s.limiter.Window().Seconds()),
		"jobs":               views,
	})
}

func (s *Server) stats(c *gin.Context) {
	snap := s.collector.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"total_downloads": snap.TotalDownloads,
		"uptime_seconds":  int(s.collector.Uptime(time.Now()).Seconds()),
	})
}

// adminStats returns the full aggregate, admins only
func (s *Server) adminStats(c *gin.Context) {
	owner := c.GetHeader("X-Owner-ID")
	if owner == "" || !s.isAdmin(owner) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	snap := s.collector.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"analytics":      snap,
		"queued":         len(s.sched.QueueSnapshot()),
		"running":        s.sched.RunningCount(),
		"uptime_seconds": int(s.collector.Uptime(time.Now()).Seconds()),
	})
}

func supportedPlatforms() []string {
	return []string{
		model.PlatformTikTok.String(),
		model.PlatformInstagram.String(),
		model.PlatformTwitter.String(),
		model.PlatformFacebook.String(),
	}
}
