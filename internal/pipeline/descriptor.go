package pipeline

import (
	"context"
	"fmt"
	"strings"

	"payroll-import/internal/domain"
	"payroll-import/internal/repository"
	"payroll-import/internal/validator"
)

// keyed is one record extracted from a row. key identifies the record within
// its payroll entry and decides which row wins when two rows collide.
type keyed[T any] struct {
	key    string
	record T
}

// descriptor captures everything that differs between dataset groups. The
// pipeline itself is the same for all of them.
type descriptor[T any] struct {
	group domain.DatasetGroup
	// lookups are the reference tables resolved by name besides employees.
	lookups []lookup
	// replaceable groups clear the existing lines of every affected entry in
	// replace mode before writing.
	replaceable bool
	extract     func(row domain.ParsedRow, fields []domain.CanonicalField, refs *references) ([]keyed[T], []domain.RecordError)
	bind        func(record T, entryID string) T
	write       func(ctx context.Context, store repository.PayrollStore, records []T) error
	// finish runs once after all writes with the entries that received lines.
	finish func(ctx context.Context, store repository.Store, entryIDs []string) error
}

var earningsDescriptor = descriptor[domain.PayrollItem]{
	group:       domain.GroupEarnings,
	replaceable: true,
	extract:     extractItems,
	bind: func(item domain.PayrollItem, entryID string) domain.PayrollItem {
		item.EntryID = entryID
		return item
	},
	write: func(ctx context.Context, store repository.PayrollStore, items []domain.PayrollItem) error {
		return store.UpsertItems(ctx, items)
	},
	finish: recomputeTotals,
}

var basesDescriptor = descriptor[domain.ContributionBase]{
	group:   domain.GroupBases,
	extract: extractBases,
	bind: func(b domain.ContributionBase, entryID string) domain.ContributionBase {
		b.EntryID = entryID
		return b
	},
	write: func(ctx context.Context, store repository.PayrollStore, bases []domain.ContributionBase) error {
		return store.UpsertContributionBases(ctx, bases)
	},
}

var jobDescriptor = descriptor[domain.JobAssignment]{
	group:   domain.GroupJob,
	lookups: []lookup{lookupDepartments, lookupPositions, lookupRanks},
	extract: extractJob,
	bind: func(a domain.JobAssignment, entryID string) domain.JobAssignment {
		a.EntryID = entryID
		return a
	},
	write: func(ctx context.Context, store repository.PayrollStore, rows []domain.JobAssignment) error {
		return store.UpsertJobAssignments(ctx, rows)
	},
}

var categoryDescriptor = descriptor[domain.CategoryAssignment]{
	group:   domain.GroupCategory,
	lookups: []lookup{lookupCategories},
	extract: extractCategory,
	bind: func(a domain.CategoryAssignment, entryID string) domain.CategoryAssignment {
		a.EntryID = entryID
		return a
	},
	write: func(ctx context.Context, store repository.PayrollStore, rows []domain.CategoryAssignment) error {
		return store.UpsertCategoryAssignments(ctx, rows)
	},
}

func extractItems(row domain.ParsedRow, fields []domain.CanonicalField, _ *references) ([]keyed[domain.PayrollItem], []domain.RecordError) {
	var out []keyed[domain.PayrollItem]
	var errs []domain.RecordError
	for _, f := range fields {
		if f.Kind != domain.KindSalaryComponent {
			continue
		}
		cell, ok := cellFor(row, f)
		if !ok || cell.IsBlank() {
			continue
		}
		amount, ok := cell.Decimal()
		if !ok {
			errs = append(errs, domain.RecordError{
				Row:     row.RowNumber,
				Field:   f.DisplayName,
				Kind:    domain.KindInvalidNumericValue,
				Message: fmt.Sprintf("%q is not a valid amount", cell.String()),
			})
			continue
		}
		out = append(out, keyed[domain.PayrollItem]{
			key:    f.RefID,
			record: domain.PayrollItem{ComponentID: f.RefID, Amount: amount},
		})
	}
	return out, errs
}

func extractBases(row domain.ParsedRow, fields []domain.CanonicalField, _ *references) ([]keyed[domain.ContributionBase], []domain.RecordError) {
	var out []keyed[domain.ContributionBase]
	var errs []domain.RecordError
	for _, f := range fields {
		if f.Kind != domain.KindContributionBase {
			continue
		}
		cell, ok := cellFor(row, f)
		if !ok || cell.IsBlank() {
			continue
		}
		base, ok := cell.Decimal()
		if !ok || base.IsNegative() {
			errs = append(errs, domain.RecordError{
				Row:     row.RowNumber,
				Field:   f.DisplayName,
				Kind:    domain.KindInvalidNumericValue,
				Message: fmt.Sprintf("%q is not a valid contribution base", cell.String()),
			})
			continue
		}
		out = append(out, keyed[domain.ContributionBase]{
			key:    f.RefID,
			record: domain.ContributionBase{InsuranceTypeID: f.RefID, Base: base},
		})
	}
	return out, errs
}

func extractJob(row domain.ParsedRow, fields []domain.CanonicalField, refs *references) ([]keyed[domain.JobAssignment], []domain.RecordError) {
	var a domain.JobAssignment
	var errs []domain.RecordError

	var err *domain.RecordError
	if a.DepartmentID, err = assignmentRef(row, fields, domain.FieldDepartment, refs.departments); err != nil {
		errs = append(errs, *err)
	}
	if a.PositionID, err = assignmentRef(row, fields, domain.FieldPosition, refs.positions); err != nil {
		errs = append(errs, *err)
	}
	if a.RankID, err = assignmentRef(row, fields, domain.FieldRank, refs.ranks); err != nil {
		errs = append(errs, *err)
	}

	if f, ok := fieldByName(fields, domain.FieldHireDate); ok {
		if cell, ok := cellFor(row, f); ok && !cell.IsBlank() {
			if d, ok := validator.ParseDate(cell); ok {
				a.HireDate = &d
			} else {
				errs = append(errs, domain.RecordError{
					Row:     row.RowNumber,
					Field:   f.DisplayName,
					Kind:    domain.KindInvalidValue,
					Message: fmt.Sprintf("%q is not a valid date", cell.String()),
				})
			}
		}
	}
	if f, ok := fieldByName(fields, domain.FieldEmploymentStatus); ok {
		if cell, ok := cellFor(row, f); ok {
			a.Status = strings.TrimSpace(cell.String())
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if a.DepartmentID == "" && a.PositionID == "" && a.RankID == "" && a.HireDate == nil && a.Status == "" {
		return nil, nil
	}
	return []keyed[domain.JobAssignment]{{record: a}}, nil
}

func extractCategory(row domain.ParsedRow, fields []domain.CanonicalField, refs *references) ([]keyed[domain.CategoryAssignment], []domain.RecordError) {
	id, err := assignmentRef(row, fields, domain.FieldCategory, refs.categories)
	if err != nil {
		return nil, []domain.RecordError{*err}
	}
	if id == "" {
		return nil, nil
	}
	return []keyed[domain.CategoryAssignment]{{record: domain.CategoryAssignment{CategoryID: id}}}, nil
}

// assignmentRef resolves a department, position, rank or category for a row.
// A named value in the owner column wins; otherwise the first ticked value
// column is used.
func assignmentRef(row domain.ParsedRow, fields []domain.CanonicalField, owner string, byName map[string]string) (string, *domain.RecordError) {
	if f, ok := fieldByName(fields, owner); ok {
		if cell, ok := cellFor(row, f); ok && !cell.IsBlank() {
			name := strings.TrimSpace(cell.String())
			if id, ok := byName[name]; ok {
				return id, nil
			}
			return "", &domain.RecordError{
				Row:     row.RowNumber,
				Field:   f.DisplayName,
				Kind:    domain.KindUnresolvedEntity,
				Message: fmt.Sprintf("%s %q not found", f.DisplayName, name),
			}
		}
	}

	for _, f := range fields {
		if f.ValueOf != owner {
			continue
		}
		if cell, ok := row.Get(f.Name); ok && cell.Truthy() {
			return f.RefID, nil
		}
	}
	return "", nil
}

// recomputeTotals refreshes gross pay, deductions and net pay of entries from
// their stored items.
func recomputeTotals(ctx context.Context, store repository.Store, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	components, err := store.ListSalaryComponents(ctx)
	if err != nil {
		return fmt.Errorf("list salary components: %w", err)
	}
	types := make(map[string]domain.ComponentType, len(components))
	for _, c := range components {
		types[c.ID] = c.Type
	}

	items, err := store.ItemsForEntries(ctx, entryIDs)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	byEntry := make(map[string][]domain.PayrollItem, len(entryIDs))
	for _, it := range items {
		byEntry[it.EntryID] = append(byEntry[it.EntryID], it)
	}

	entries := make([]domain.PayrollEntry, 0, len(entryIDs))
	for _, id := range entryIDs {
		gross, deductions, net := domain.ComputeTotals(byEntry[id], types)
		entries = append(entries, domain.PayrollEntry{ID: id, GrossPay: gross, TotalDeductions: deductions, NetPay: net})
	}
	if err := store.UpdateEntryTotals(ctx, entries); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	return nil
}
