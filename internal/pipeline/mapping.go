package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"payroll-import/internal/domain"
	"payroll-import/internal/metrics"
)

// columnsOf returns the union of the row headers in first-seen order.
func columnsOf(rows []domain.ParsedRow) []string {
	seen := map[string]bool{}
	var out []string
	for _, row := range rows {
		for _, c := range row.Columns() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// resolveMapping turns an explicit column mapping into fields. Targets that
// are not in the catalog are reported and left unmapped. When several columns
// name the same field the first one in sheet order keeps it and the others are
// reported and left unmapped.
func resolveMapping(explicit map[string]string, columns []string, fields []domain.CanonicalField) (map[string]domain.CanonicalField, []domain.RecordError) {
	byName := make(map[string]domain.CanonicalField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	position := make(map[string]int, len(columns))
	for i, c := range columns {
		position[c] = i
	}
	ordered := make([]string, 0, len(explicit))
	for column := range explicit {
		ordered = append(ordered, column)
	}
	sort.Slice(ordered, func(i, j int) bool {
		pi, iok := position[ordered[i]]
		pj, jok := position[ordered[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return ordered[i] < ordered[j]
		}
	})

	out := make(map[string]domain.CanonicalField, len(explicit))
	owner := map[string]string{}
	var warnings []domain.RecordError
	for _, column := range ordered {
		target := explicit[column]
		if target == "" {
			continue
		}
		f, ok := byName[target]
		if !ok {
			warnings = append(warnings, domain.RecordError{
				Field:   column,
				Kind:    domain.KindUnmappedColumn,
				Message: fmt.Sprintf("column %q maps to unknown field %q", column, target),
			})
			continue
		}
		if first, taken := owner[target]; taken {
			warnings = append(warnings, domain.RecordError{
				Field:   column,
				Kind:    domain.KindUnmappedColumn,
				Message: fmt.Sprintf("column %q maps to field %q already taken by column %q; its values are ignored", column, target, first),
			})
			continue
		}
		owner[target] = column
		out[column] = f
	}
	return out, warnings
}

// autoMapping matches the columns against the catalog. Low confidence matches
// are kept and reported.
func (p *Pipeline) autoMapping(ctx context.Context, columns []string, fields []domain.CanonicalField) (map[string]domain.CanonicalField, *domain.MatchReport, []domain.RecordError, error) {
	var group string
	if len(fields) > 0 {
		group = string(fields[0].Group)
	}
	timer := metrics.NewTimer()
	report, err := p.matcher.Match(ctx, columns, fields, domain.ModeManyToMany)
	timer.ObserveDuration(metrics.MatchDuration.WithLabelValues(group))
	if err != nil {
		return nil, nil, nil, err
	}

	var warnings []domain.RecordError
	for _, r := range report.Results {
		if r.IsMapped() && r.MatchType == domain.MatchLowFuzzy {
			warnings = append(warnings, domain.RecordError{
				Field:   r.SourceColumn,
				Kind:    domain.KindLowConfidenceMatch,
				Message: fmt.Sprintf("column %q mapped to %q with low confidence (%.2f)", r.SourceColumn, r.MatchedField.DisplayName, r.Score),
			})
		}
	}
	return report.Mapping(), report, warnings, nil
}

// project renames mapped columns to their canonical field names. Unmapped
// columns keep their header.
func project(rows []domain.ParsedRow, mapping map[string]domain.CanonicalField) []domain.ParsedRow {
	out := make([]domain.ParsedRow, len(rows))
	for i, row := range rows {
		cols := row.Columns()
		renamed := make([]string, len(cols))
		values := make([]domain.CellValue, len(cols))
		for j, c := range cols {
			values[j], _ = row.Get(c)
			renamed[j] = c
			if f, ok := mapping[c]; ok {
				renamed[j] = f.Name
			}
		}
		out[i] = domain.NewParsedRow(row.RowNumber, renamed, values)
	}
	return out
}

func fieldByName(fields []domain.CanonicalField, name string) (domain.CanonicalField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return domain.CanonicalField{}, false
}

// cellFor finds the cell of a field: canonical name, the name without
// underscores, then each label.
func cellFor(row domain.ParsedRow, f domain.CanonicalField) (domain.CellValue, bool) {
	if v, ok := row.Get(f.Name); ok {
		return v, true
	}
	if v, ok := row.Get(strings.ReplaceAll(f.Name, "_", "")); ok {
		return v, true
	}
	for _, label := range f.Labels() {
		if v, ok := row.Get(label); ok {
			return v, true
		}
	}
	return domain.Blank(), false
}

// fieldText returns the trimmed text of a named field, "" when absent.
func fieldText(row domain.ParsedRow, fields []domain.CanonicalField, name string) string {
	f, ok := fieldByName(fields, name)
	if !ok {
		return ""
	}
	v, ok := cellFor(row, f)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}
