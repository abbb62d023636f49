// Package export renders payroll data into spreadsheet workbooks described by
// templates.
package export

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// SheetMode selects how a sheet lays out its columns.
type SheetMode string

const (
	// ModeStatic maps the field list 1:1 to columns.
	ModeStatic SheetMode = "static"
	// ModePivot emits one column per distinct category found in the data,
	// between the fixed and the summary fields.
	ModePivot SheetMode = "pivot"
)

// ValueKind tells the writer how to store a cell.
type ValueKind string

const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
)

// FieldTemplate is one column of a sheet. Path names the row field the
// column reads.
type FieldTemplate struct {
	Label string    `json:"label"`
	Path  string    `json:"path"`
	Width float64   `json:"width,omitempty"`
	Kind  ValueKind `json:"kind,omitempty"`
}

// PivotTemplate configures the dynamic block of a pivot sheet.
type PivotTemplate struct {
	// Order lists categories that come first, in this order. Categories not
	// listed follow alphabetically.
	Order []string  `json:"order,omitempty"`
	Width float64   `json:"width,omitempty"`
	Kind  ValueKind `json:"kind,omitempty"`
}

// SheetTemplate describes one sheet. Source selects the rows of the dataset
// the sheet renders.
type SheetTemplate struct {
	Name   string          `json:"name"`
	Source string          `json:"source"`
	Mode   SheetMode       `json:"mode"`
	Fields []FieldTemplate `json:"fields"`
	// Summary fields are pinned after the dynamic block of a pivot sheet.
	Summary []FieldTemplate `json:"summary,omitempty"`
	Pivot   *PivotTemplate  `json:"pivot,omitempty"`
	// FilterZeroColumns drops numeric columns whose value is zero or blank on
	// every row.
	FilterZeroColumns bool `json:"filter_zero_columns,omitempty"`
}

// Template is a complete workbook description.
type Template struct {
	Name   string          `json:"name"`
	Sheets []SheetTemplate `json:"sheets"`
}

// ErrInvalidTemplate marks templates that cannot be rendered.
var ErrInvalidTemplate = errors.New("invalid export template")

// Validate checks a template before rendering. Every sheet needs a name and at
// least one field with both a label and a path. Non-positive widths only
// produce warnings; the default width is used instead.
func Validate(t Template) (warnings []string, err error) {
	if len(t.Sheets) == 0 {
		return nil, errors.Wrap(ErrInvalidTemplate, "template has no sheets")
	}

	var problems []string
	seen := make(map[string]bool, len(t.Sheets))
	for i, s := range t.Sheets {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("sheet %d has no name", i+1))
		} else if seen[name] {
			problems = append(problems, fmt.Sprintf("sheet %q is declared twice", name))
		}
		seen[name] = true

		switch s.Mode {
		case ModeStatic, ModePivot, "":
		default:
			problems = append(problems, fmt.Sprintf("sheet %q has unknown mode %q", s.Name, s.Mode))
		}

		usable := 0
		all := append(append([]FieldTemplate(nil), s.Fields...), s.Summary...)
		for j, f := range all {
			if !f.usable() {
				warnings = append(warnings, fmt.Sprintf("sheet %q field %d lacks a label or path and is skipped", s.Name, j+1))
				continue
			}
			usable++
			if f.Width <= 0 {
				warnings = append(warnings, fmt.Sprintf("sheet %q field %q has width %g, default width used", s.Name, f.Label, f.Width))
			}
		}
		if usable == 0 {
			problems = append(problems, fmt.Sprintf("sheet %q has no field with a label and a path", s.Name))
		}
		if s.Pivot != nil && s.Pivot.Width <= 0 {
			warnings = append(warnings, fmt.Sprintf("sheet %q pivot width %g, default width used", s.Name, s.Pivot.Width))
		}
	}

	if len(problems) > 0 {
		return warnings, errors.Wrap(ErrInvalidTemplate, strings.Join(problems, "; "))
	}
	return warnings, nil
}

// usable reports whether a field can be rendered.
func (f FieldTemplate) usable() bool {
	return strings.TrimSpace(f.Label) != "" && strings.TrimSpace(f.Path) != ""
}
