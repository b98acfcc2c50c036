package types

import (
	"time"

	"github.com/google/uuid"
)

type JobTrigger string

const (
	JobTriggerScheduled JobTrigger = "SCHEDULED"
	JobTriggerManual    JobTrigger = "MANUAL"
)

// JobRun is one execution of a scheduled job, kept in the scheduler's
// in-memory history.
type JobRun struct {
	ID         uuid.UUID  `json:"id"`
	Job        string     `json:"job"`
	Trigger    JobTrigger `json:"trigger"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
	DurationMs int64      `json:"durationMs"`
	Processed  int        `json:"processed"`
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
}

type JobStatus struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	Running  bool       `json:"running"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
	LastRun  *JobRun    `json:"lastRun,omitempty"`
}

type SchedulerStatus struct {
	Running  bool        `json:"running"`
	Timezone string      `json:"timezone"`
	Jobs     []JobStatus `json:"jobs"`
	History  []JobRun    `json:"history"`
}
