package model

import "time"

type JobStatus string

const (
	JobStatusPending             JobStatus = "PENDING"
	JobStatusExtracting          JobStatus = "EXTRACTING"
	JobStatusExtractionCompleted JobStatus = "EXTRACTION_COMPLETED"
	JobStatusSummarizingPartial  JobStatus = "SUMMARIZING_PARTIAL"
	JobStatusSummarizingFinal    JobStatus = "SUMMARIZING_FINAL"
	JobStatusCompleted           JobStatus = "COMPLETED"
	JobStatusFailed              JobStatus = "FAILED"
)

// Stream event names.
const (
	EventPending      = "pending"
	EventProgress     = "progress"
	EventComplete     = "complete"
	EventError        = "error"
	EventStatusUpdate = "statusUpdate"
)

// Job is keyed by the video id, so repeated requests for one video share a record.
type Job struct {
	ID        string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	Result    string    `json:"result"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewJob(id string) *Job {
	return &Job{ID: id, Status: JobStatusPending, UpdatedAt: time.Now()}
}

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// EventName maps a status to the name its snapshot is streamed under.
func (s JobStatus) EventName() string {
	switch s {
	case JobStatusPending:
		return EventPending
	case JobStatusExtracting, JobStatusExtractionCompleted,
		JobStatusSummarizingPartial, JobStatusSummarizingFinal:
		return EventProgress
	case JobStatusCompleted:
		return EventComplete
	case JobStatusFailed:
		return EventError
	default:
		return EventStatusUpdate
	}
}

var transitions = map[JobStatus][]JobStatus{
	JobStatusPending:             {JobStatusExtracting, JobStatusFailed},
	JobStatusExtracting:          {JobStatusExtractionCompleted, JobStatusFailed},
	JobStatusExtractionCompleted: {JobStatusSummarizingPartial, JobStatusSummarizingFinal, JobStatusFailed},
	JobStatusSummarizingPartial:  {JobStatusSummarizingFinal, JobStatusFailed},
	JobStatusSummarizingFinal:    {JobStatusCompleted, JobStatusFailed},
	JobStatusCompleted:           {},
	JobStatusFailed:              {JobStatusPending},
}

// CanTransition reports whether from -> to is a forward move of the job
// lifecycle. FAILED -> PENDING is the explicit retry path.
func CanTransition(from, to JobStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanRetry is true only for failed jobs.
func (j *Job) CanRetry() bool {
	return j != nil && j.Status == JobStatusFailed
}
