package adapter

// Notifier pushes job status events to live subscribers. A missing
// subscriber is not an error; delivery is best-effort.
type Notifier interface {
	Publish(jobID, event string, payload any)
	Complete(jobID string)
	Fail(jobID string, err error)
}
