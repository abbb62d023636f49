package domain

import "time"

// JobStatus represents the status of an import job.
type JobStatus string

const (
	JobStatusPending             JobStatus = "pending"
	JobStatusProcessing          JobStatus = "processing"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
	JobStatusFailed              JobStatus = "failed"
	JobStatusCancelled           JobStatus = "cancelled"
	JobStatusRolledBack          JobStatus = "rolled_back"
)

// IsTerminal reports whether a job in this status will never run again.
func (s JobStatus) IsTerminal() bool {
	return s != JobStatusPending && s != JobStatusProcessing
}

// ImportMode controls how existing line items are treated.
type ImportMode string

const (
	// ModeUpsert inserts new items and updates conflicting ones.
	ModeUpsert ImportMode = "upsert"
	// ModeReplace removes every existing item of the affected aggregates first.
	ModeReplace ImportMode = "replace"
)

// ValidModes contains all valid import modes.
var ValidModes = []ImportMode{ModeUpsert, ModeReplace}

// IsValidMode checks if an import mode is valid.
func IsValidMode(mode string) bool {
	for _, m := range ValidModes {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// ImportTask is one execution of the pipeline for one dataset group and one period.
type ImportTask struct {
	ID          string            `json:"id"`
	PeriodID    string            `json:"period_id"`
	Group       DatasetGroup      `json:"dataset_group"`
	Mode        ImportMode        `json:"mode"`
	SkipInvalid bool              `json:"skip_invalid"`
	SheetName   string            `json:"sheet_name,omitempty"`
	Mapping     map[string]string `json:"mapping,omitempty"` // source column -> canonical field name
	Rows        []ParsedRow       `json:"-"`
	StartedAt   time.Time         `json:"started_at"`
}

// ImportJob represents a persisted import job.
type ImportJob struct {
	ID               string                 `json:"id"`
	PeriodID         string                 `json:"period_id"`
	Group            DatasetGroup           `json:"dataset_group"`
	Mode             ImportMode             `json:"mode"`
	Status           JobStatus              `json:"status"`
	TotalRecords     int                    `json:"total_records"`
	ProcessedRecords int                    `json:"processed_records"`
	SuccessCount     int                    `json:"success_count"`
	FailureCount     int                    `json:"failure_count"`
	IdempotencyToken string                 `json:"idempotency_token"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	Outcome          *ImportOutcome         `json:"outcome,omitempty"`
	ErrorMessage     *string                `json:"error_message,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
}

// RecordError represents a row-scoped error or warning produced during import.
// Row 0 means the entry concerns the whole sheet.
type RecordError struct {
	Row     int       `json:"row"`
	Field   string    `json:"field,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ImportOutcome is the structured result of one pipeline run.
type ImportOutcome struct {
	TotalRows     int           `json:"total_rows"`
	SuccessCount  int           `json:"success_count"`
	FailedCount   int           `json:"failed_count"`
	SkippedCount  int           `json:"skipped_count"`
	Errors        []RecordError `json:"errors,omitempty"`
	Warnings      []RecordError `json:"warnings,omitempty"`
	CreatedIDs    []string      `json:"created_ids,omitempty"`
	UpdatedIDs    []string      `json:"updated_ids,omitempty"`
	RollbackToken *string       `json:"rollback_token,omitempty"`
}

// Status derives the job status from the outcome counters.
func (o ImportOutcome) Status() JobStatus {
	switch {
	case o.TotalRows > 0 && o.SuccessCount == 0 && o.FailedCount > 0:
		return JobStatusFailed
	case o.FailedCount > 0 || o.SkippedCount > 0:
		return JobStatusCompletedWithErrors
	default:
		return JobStatusCompleted
	}
}
