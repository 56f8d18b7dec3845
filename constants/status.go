package constants

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

// Stable values (exposed verbatim over the API).
const (
	JobStatusPending    JobStatus = "pending"    // created, not yet picked up
	JobStatusProcessing JobStatus = "processing" // a worker owns the job
	JobStatusCompleted  JobStatus = "completed"  // terminal, possibly with per-file errors
	JobStatusFailed     JobStatus = "failed"     // terminal, catastrophic
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next keeps the lifecycle monotonic.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}
