package domain

import "strings"

// DatasetGroup names one kind of workbook the service can import.
type DatasetGroup string

const (
	GroupEarnings DatasetGroup = "earnings"
	GroupBases    DatasetGroup = "bases"
	GroupJob      DatasetGroup = "job"
	GroupCategory DatasetGroup = "category"
)

// ValidGroups contains all dataset groups in import order.
var ValidGroups = []DatasetGroup{GroupEarnings, GroupBases, GroupJob, GroupCategory}

// IsValidGroup checks if a dataset group is valid.
func IsValidGroup(group string) bool {
	for _, g := range ValidGroups {
		if string(g) == group {
			return true
		}
	}
	return false
}

// FieldKind classifies a canonical field.
type FieldKind string

const (
	KindBasic            FieldKind = "basic"
	KindAssignment       FieldKind = "assignment"
	KindContributionBase FieldKind = "contribution_base"
	KindSalaryComponent  FieldKind = "salary_component"
)

// Canonical names of the fixed basic and assignment fields.
const (
	FieldEmployeeName     = "employee_name"
	FieldEmployeeCode     = "employee_code"
	FieldIDNumber         = "id_number"
	FieldDepartment       = "department"
	FieldPosition         = "position"
	FieldRank             = "rank"
	FieldCategory         = "personnel_category"
	FieldHireDate         = "hire_date"
	FieldEmploymentStatus = "employment_status"
)

// CanonicalField is one target the spreadsheet columns are reconciled against.
type CanonicalField struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Aliases     []string     `json:"aliases,omitempty"`
	Group       DatasetGroup `json:"dataset_group"`
	Required    bool         `json:"required"`
	Kind        FieldKind    `json:"kind"`
	// RefID is the id of the reference row behind the field (component, insurance type,
	// department...).
	RefID string `json:"ref_id,omitempty"`
	// ValueOf is set on value candidates: a column literally named after a department
	// maps to the department field with RefID preset.
	ValueOf string `json:"value_of,omitempty"`
}

// Labels returns the display name followed by the aliases, without duplicates.
func (f CanonicalField) Labels() []string {
	labels := make([]string, 0, len(f.Aliases)+2)
	seen := make(map[string]struct{}, len(f.Aliases)+2)
	add := func(s string) {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		labels = append(labels, s)
	}
	add(f.DisplayName)
	for _, a := range f.Aliases {
		add(a)
	}
	if len(labels) == 0 {
		add(f.Name)
	}
	return labels
}

// IsValueCandidate reports whether the field stands for a concrete reference value.
func (f CanonicalField) IsValueCandidate() bool {
	return f.ValueOf != ""
}
