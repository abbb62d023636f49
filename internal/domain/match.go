package domain

// MatchType classifies how confidently a column maps onto a field.
type MatchType string

const (
	MatchExact       MatchType = "exact"
	MatchHighFuzzy   MatchType = "high_fuzzy"
	MatchMediumFuzzy MatchType = "medium_fuzzy"
	MatchLowFuzzy    MatchType = "low_fuzzy"
	MatchUnmapped    MatchType = "unmapped"
)

// MatchMode selects the matching topology.
type MatchMode string

const (
	ModeOneToOne   MatchMode = "one_to_one"
	ModeOneToMany  MatchMode = "one_to_many"
	ModeManyToOne  MatchMode = "many_to_one"
	ModeManyToMany MatchMode = "many_to_many"
)

// ValidMatchModes contains all matching topologies.
var ValidMatchModes = []MatchMode{ModeOneToOne, ModeOneToMany, ModeManyToOne, ModeManyToMany}

// IsValidMatchMode checks if a matching topology is valid.
func IsValidMatchMode(mode string) bool {
	for _, m := range ValidMatchModes {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// MatchCandidate is one scored (column, field) pair.
type MatchCandidate struct {
	SourceColumn string         `json:"source_column"`
	Field        CanonicalField `json:"field"`
	Score        float64        `json:"score"`
	MatchType    MatchType      `json:"match_type"`
	IsExact      bool           `json:"is_exact"`
}

// ColumnMatchResult is the chosen outcome for one source column.
// MatchedField is non-nil exactly when MatchType is not MatchUnmapped.
type ColumnMatchResult struct {
	SourceColumn string           `json:"source_column"`
	MatchedField *CanonicalField  `json:"matched_field,omitempty"`
	MatchType    MatchType        `json:"match_type"`
	Score        float64          `json:"score"`
	Suggestions  []CanonicalField `json:"suggestions,omitempty"`
	// Candidates lists every field at or above the retention floor (one-to-many mode).
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// IsMapped reports whether the column was assigned a field.
func (r ColumnMatchResult) IsMapped() bool {
	return r.MatchedField != nil && r.MatchType != MatchUnmapped
}

// MatchReport is the full output of a matching run.
type MatchReport struct {
	Mode            MatchMode           `json:"mode"`
	Results         []ColumnMatchResult `json:"results"`
	RequiredTotal   int                 `json:"required_fields_total"`
	RequiredMatched int                 `json:"required_fields_matched"`
	MissingRequired []string            `json:"missing_required,omitempty"`
	PairwiseScores  int                 `json:"pairwise_scores"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// Mapping returns source column -> matched field for the mapped columns.
func (r MatchReport) Mapping() map[string]CanonicalField {
	out := make(map[string]CanonicalField, len(r.Results))
	for _, res := range r.Results {
		if res.IsMapped() {
			out[res.SourceColumn] = *res.MatchedField
		}
	}
	return out
}

// UnmappedColumns lists the source columns left without a field.
func (r MatchReport) UnmappedColumns() []string {
	var out []string
	for _, res := range r.Results {
		if !res.IsMapped() {
			out = append(out, res.SourceColumn)
		}
	}
	return out
}
