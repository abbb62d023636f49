package domain

import "time"

// Phase is the state of an import task.
type Phase string

const (
	PhaseParsing    Phase = "parsing"
	PhaseValidating Phase = "validating"
	PhaseImporting  Phase = "importing"
	PhaseCompleted  Phase = "completed"
	PhaseError      Phase = "error"
)

// IsTerminal reports whether no further phase follows.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// GlobalProgress counts work across every group of the task.
type GlobalProgress struct {
	TotalGroups      int `json:"total_groups"`
	ProcessedGroups  int `json:"processed_groups"`
	TotalRecords     int `json:"total_records"`
	ProcessedRecords int `json:"processed_records"`
}

// CurrentProgress counts work within the group being imported.
type CurrentProgress struct {
	GroupName        string `json:"group_name"`
	SheetName        string `json:"sheet_name"`
	TotalRecords     int    `json:"total_records"`
	ProcessedRecords int    `json:"processed_records"`
	SuccessCount     int    `json:"success_count"`
	ErrorCount       int    `json:"error_count"`
}

// ImportProgress is a point-in-time view of a running import.
type ImportProgress struct {
	Phase     Phase           `json:"phase"`
	Global    GlobalProgress  `json:"global"`
	Current   CurrentProgress `json:"current"`
	Message   string          `json:"message"`
	Errors    []RecordError   `json:"errors,omitempty"`
	Warnings  []RecordError   `json:"warnings,omitempty"`
	Cancelled bool            `json:"cancelled"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Percent returns the processed share of all records, 0..100.
func (p ImportProgress) Percent() float64 {
	if p.Global.TotalRecords == 0 {
		if p.Phase == PhaseCompleted {
			return 100
		}
		return 0
	}
	return float64(p.Global.ProcessedRecords) * 100 / float64(p.Global.TotalRecords)
}
