package events

// Job lifecycle event types.
const (
	EventJobStarted   = "job.started"
	EventJobResumed   = "job.resumed"
	EventJobSuspended = "job.suspended"
	EventRowCompleted = "row.completed"
	EventJobFinished  = "job.finished"
	EventJobFailed    = "job.failed"
	EventJobValidated = "job.validated"
)

// EntityJob is the entity type of every job event.
const EntityJob = "job"

// JobStarted is emitted when an import request creates a job.
type JobStarted struct {
	BaseEvent
	Total        int    `json:"total"`
	Mode         string `json:"mode"`
	ValidateOnly bool   `json:"validate_only,omitempty"`
}

// JobResumed is emitted when a suspended job re-enters after a page load.
type JobResumed struct {
	BaseEvent
	Index   int    `json:"index"`
	NextISO string `json:"next_iso,omitempty"`
}

// JobSuspended is emitted when the runner yields for a navigation.
type JobSuspended struct {
	BaseEvent
	Index   int    `json:"index"`
	NextISO string `json:"next_iso,omitempty"`
	Target  string `json:"target,omitempty"`
}

// RowCompleted is emitted when the runner is done with a row: filled (and
// saved in full mode), or not started because neither the month grid nor the
// create button could be found.
type RowCompleted struct {
	BaseEvent
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	Date       string `json:"date,omitempty"`
	Saved      bool   `json:"saved"`
	NotStarted bool   `json:"not_started,omitempty"`
}

// JobFinished is emitted once when every row has been processed. It is the
// completion push.
type JobFinished struct {
	BaseEvent
	Total int `json:"total"`
}

// JobFailed is emitted when job setup fails fatally.
type JobFailed struct {
	BaseEvent
	Reason string `json:"reason"`
}

// Check is one line of a validate-only report.
type Check struct {
	Field string `json:"field"`
	OK    bool   `json:"ok"`
}

// JobValidated is emitted when a validate-only run completes.
type JobValidated struct {
	BaseEvent
	Checks []Check `json:"checks"`
}
