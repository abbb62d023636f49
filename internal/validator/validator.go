package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"payroll-import/internal/domain"
)

var (
	idNumberRegex     = regexp.MustCompile(`^(\d{15}|\d{17}[\dXx])$`)
	employeeCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	validStatus       = []interface{}{"在职", "离职", "试用", "退休", "active", "inactive", "probation", "retired"}
	excelEpoch        = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	dateLayouts       = []string{"2006-01-02", "2006/01/02", "2006.01.02", "20060102", "2006年1月2日", "2006-1-2", "2006/1/2"}
)

// RuleKind names a declarative check.
type RuleKind string

const (
	RuleRequired RuleKind = "required"
	RuleNumber   RuleKind = "number"
	RuleDate     RuleKind = "date"
	RulePattern  RuleKind = "pattern"
	RuleEnum     RuleKind = "enum"
)

// Rule declares the checks applied to one canonical field.
type Rule struct {
	Field    string
	Aliases  []string
	Required bool
	Kind     RuleKind
	Min      *float64
	Max      *float64
	Pattern  *regexp.Regexp
	Enum     []interface{}
}

// Report is the outcome of validating a row set.
type Report struct {
	Valid       bool                 `json:"is_valid"`
	Errors      []domain.RecordError `json:"errors,omitempty"`
	Warnings    []domain.RecordError `json:"warnings,omitempty"`
	InvalidRows map[int]bool         `json:"-"`
}

// RowValid reports whether a source row passed every rule.
func (r Report) RowValid(row int) bool {
	return !r.InvalidRows[row]
}

// Validator checks parsed rows against per-group rules.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// RulesFor derives the rules of a group from its canonical fields.
func (v *Validator) RulesFor(group domain.DatasetGroup, fields []domain.CanonicalField) []Rule {
	zero := 0.0
	var rules []Rule
	for _, f := range fields {
		if f.IsValueCandidate() {
			continue
		}
		r := Rule{Field: f.Name, Aliases: f.Labels(), Required: f.Required}
		switch {
		case f.Kind == domain.KindSalaryComponent:
			r.Kind = RuleNumber
		case f.Kind == domain.KindContributionBase:
			r.Kind = RuleNumber
			r.Min = &zero
		case f.Name == domain.FieldHireDate:
			r.Kind = RuleDate
		case f.Name == domain.FieldEmploymentStatus:
			r.Kind = RuleEnum
			r.Enum = validStatus
		case f.Name == domain.FieldIDNumber:
			r.Kind = RulePattern
			r.Pattern = idNumberRegex
		case f.Name == domain.FieldEmployeeCode:
			r.Kind = RulePattern
			r.Pattern = employeeCodeRegex
		case f.Required:
			r.Kind = RuleRequired
		default:
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

// ValidateRows evaluates every rule on every row. Errors accumulate; a bad row
// never stops the others from being checked and rows are never modified.
func (v *Validator) ValidateRows(rows []domain.ParsedRow, group domain.DatasetGroup, fields []domain.CanonicalField) Report {
	rules := v.RulesFor(group, fields)
	report := Report{Valid: true, InvalidRows: map[int]bool{}}

	for _, row := range rows {
		for _, rule := range rules {
			cell, key, ok := resolve(row, rule)
			if err := checkRule(rule, cell, ok); err != nil {
				field := rule.Field
				if key != "" && key != rule.Field {
					field = fmt.Sprintf("%s (%s)", rule.Field, key)
				}
				report.Errors = append(report.Errors, ConvertValidationErrors(row.RowNumber, field, err)...)
				report.InvalidRows[row.RowNumber] = true
			}
		}
	}

	report.Warnings = unknownColumns(rows, fields)
	report.Valid = len(report.Errors) == 0
	return report
}

// resolve finds the cell of a rule by canonical name, then the name without
// underscores, then each alias. The first present column wins.
func resolve(row domain.ParsedRow, rule Rule) (domain.CellValue, string, bool) {
	keys := append([]string{rule.Field, strings.ReplaceAll(rule.Field, "_", "")}, rule.Aliases...)
	for _, k := range keys {
		if cell, ok := row.Get(k); ok {
			return cell, k, true
		}
	}
	return domain.Blank(), "", false
}

// checkRule returns nil or a validation.Error whose code carries the error kind.
func checkRule(rule Rule, cell domain.CellValue, present bool) error {
	if !present || cell.IsBlank() {
		if rule.Required {
			return validation.Validate("", validation.Required.ErrorObject(codeError(domain.KindMissingRequiredField, "value is required")))
		}
		return nil
	}

	switch rule.Kind {
	case RuleNumber:
		f, ok := cell.Float()
		if !ok {
			return codeError(domain.KindInvalidNumericValue, fmt.Sprintf("%q is not a number", cell.String()))
		}
		var rules []validation.Rule
		if rule.Min != nil {
			rules = append(rules, validation.Min(*rule.Min).ErrorObject(codeError(domain.KindInvalidNumericValue, fmt.Sprintf("must be no less than %v", *rule.Min))))
		}
		if rule.Max != nil {
			rules = append(rules, validation.Max(*rule.Max).ErrorObject(codeError(domain.KindInvalidNumericValue, fmt.Sprintf("must be no greater than %v", *rule.Max))))
		}
		return validation.Validate(f, rules...)

	case RuleDate:
		if cell.Kind == domain.CellNumber {
			// spreadsheet serial date
			if cell.Num <= 0 {
				return codeError(domain.KindInvalidValue, "date serial must be positive")
			}
			return nil
		}
		return validation.Validate(cell.String(), validation.By(dateRule))

	case RulePattern:
		return validation.Validate(cell.String(), validation.Match(rule.Pattern).ErrorObject(codeError(domain.KindInvalidValue, "invalid format")))

	case RuleEnum:
		return validation.Validate(cell.String(), validation.In(rule.Enum...).ErrorObject(codeError(domain.KindInvalidValue, "must be one of "+enumList(rule.Enum))))
	}
	return nil
}

func dateRule(value interface{}) error {
	s, _ := value.(string)
	for _, layout := range dateLayouts {
		if validation.Validate(s, validation.Date(layout)) == nil {
			return nil
		}
	}
	return codeError(domain.KindInvalidValue, fmt.Sprintf("%q is not a valid date", s))
}

// ParseDate parses a date cell using the accepted layouts. Numeric cells are
// spreadsheet serial days.
func ParseDate(cell domain.CellValue) (time.Time, bool) {
	if cell.Kind == domain.CellNumber {
		if cell.Num <= 0 {
			return time.Time{}, false
		}
		return excelEpoch.AddDate(0, 0, int(cell.Num)), true
	}
	s := cell.String()
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func codeError(kind domain.ErrorKind, message string) validation.Error {
	return validation.NewError(string(kind), message)
}

func enumList(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

// unknownColumns warns once for every column no field claims.
func unknownColumns(rows []domain.ParsedRow, fields []domain.CanonicalField) []domain.RecordError {
	known := map[string]bool{}
	for _, f := range fields {
		known[strings.ToLower(f.Name)] = true
		known[strings.ToLower(strings.ReplaceAll(f.Name, "_", ""))] = true
		for _, l := range f.Labels() {
			known[strings.ToLower(strings.TrimSpace(l))] = true
		}
	}

	seen := map[string]bool{}
	var unknown []string
	for _, row := range rows {
		for _, col := range row.Columns() {
			key := strings.ToLower(strings.TrimSpace(col))
			if known[key] || seen[key] {
				continue
			}
			seen[key] = true
			unknown = append(unknown, col)
		}
	}
	sort.Strings(unknown)

	out := make([]domain.RecordError, 0, len(unknown))
	for _, col := range unknown {
		out = append(out, domain.RecordError{
			Field:   col,
			Kind:    domain.KindUnmappedColumn,
			Message: fmt.Sprintf("column %q is not a known field and will be ignored", col),
		})
	}
	return out
}

// ConvertValidationErrors converts ozzo validation errors to domain RecordErrors.
func ConvertValidationErrors(rowNum int, field string, err error) []domain.RecordError {
	var records []domain.RecordError

	var ve validation.Errors
	var single validation.Error
	switch {
	case errors.As(err, &ve):
		keys := make([]string, 0, len(ve))
		for k := range ve {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			records = append(records, ConvertValidationErrors(rowNum, k, ve[k])...)
		}
	case errors.As(err, &single):
		records = append(records, domain.RecordError{
			Row:     rowNum,
			Field:   field,
			Kind:    kindOf(single.Code()),
			Message: single.Error(),
		})
	case err != nil:
		records = append(records, domain.RecordError{
			Row:     rowNum,
			Field:   field,
			Kind:    domain.KindInvalidValue,
			Message: err.Error(),
		})
	}

	return records
}

func kindOf(code string) domain.ErrorKind {
	switch domain.ErrorKind(code) {
	case domain.KindMissingRequiredField, domain.KindInvalidNumericValue, domain.KindInvalidValue:
		return domain.ErrorKind(code)
	case "validation_required":
		return domain.KindMissingRequiredField
	}
	return domain.KindInvalidValue
}
