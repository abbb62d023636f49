package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"payroll-import/internal/domain"
	"payroll-import/internal/repository"
)

// lookup names one reference table resolved by name.
type lookup int

const (
	lookupDepartments lookup = iota
	lookupPositions
	lookupRanks
	lookupCategories
)

// owner is the canonical field whose values a lookup resolves.
func (l lookup) owner() string {
	switch l {
	case lookupDepartments:
		return domain.FieldDepartment
	case lookupPositions:
		return domain.FieldPosition
	case lookupRanks:
		return domain.FieldRank
	default:
		return domain.FieldCategory
	}
}

// references holds every entity a task refers to, keyed the way rows name them.
type references struct {
	byCode      map[string]domain.Employee
	byName      map[string]domain.Employee
	departments map[string]string
	positions   map[string]string
	ranks       map[string]string
	categories  map[string]string
}

// employee resolves the employee of a row: by code first, then by name. A
// present id number must agree with the stored one.
func (r *references) employee(row domain.ParsedRow, fields []domain.CanonicalField) (domain.Employee, *domain.RecordError) {
	code := fieldText(row, fields, domain.FieldEmployeeCode)
	name := fieldText(row, fields, domain.FieldEmployeeName)

	emp, found := r.byCode[code]
	if code == "" || !found {
		emp, found = r.byName[name]
	}
	if !found {
		who := name
		if who == "" {
			who = code
		}
		return domain.Employee{}, &domain.RecordError{
			Row:     row.RowNumber,
			Field:   domain.FieldEmployeeName,
			Kind:    domain.KindUnresolvedEntity,
			Message: fmt.Sprintf("employee %q not found", who),
		}
	}

	if idNumber := fieldText(row, fields, domain.FieldIDNumber); idNumber != "" && emp.IDNumber != "" &&
		!strings.EqualFold(idNumber, emp.IDNumber) {
		return domain.Employee{}, &domain.RecordError{
			Row:     row.RowNumber,
			Field:   domain.FieldIDNumber,
			Kind:    domain.KindUnresolvedEntity,
			Message: fmt.Sprintf("id number does not match employee %q", emp.FullName),
		}
	}
	return emp, nil
}

// resolveReferences issues one batched lookup per entity type. The lookups run
// concurrently; they only read.
func resolveReferences(ctx context.Context, store repository.ReferenceStore, rows []domain.ParsedRow, fields []domain.CanonicalField, lookups []lookup) (*references, error) {
	refs := &references{
		departments: map[string]string{},
		positions:   map[string]string{},
		ranks:       map[string]string{},
		categories:  map[string]string{},
	}

	codes := distinctValues(rows, fields, domain.FieldEmployeeCode)
	names := distinctValues(rows, fields, domain.FieldEmployeeName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(codes) == 0 {
			return nil
		}
		found, err := store.EmployeesByCodes(gctx, codes)
		if err != nil {
			return fmt.Errorf("employees by code: %w", err)
		}
		refs.byCode = found
		return nil
	})
	g.Go(func() error {
		if len(names) == 0 {
			return nil
		}
		found, err := store.EmployeesByNames(gctx, names)
		if err != nil {
			return fmt.Errorf("employees by name: %w", err)
		}
		refs.byName = found
		return nil
	})

	for _, l := range lookups {
		values := distinctValues(rows, fields, l.owner())
		if len(values) == 0 {
			continue
		}
		switch l {
		case lookupDepartments:
			g.Go(func() error {
				found, err := store.DepartmentsByNames(gctx, values)
				if err != nil {
					return fmt.Errorf("departments by name: %w", err)
				}
				for name, d := range found {
					refs.departments[name] = d.ID
				}
				return nil
			})
		case lookupPositions:
			g.Go(func() error {
				found, err := store.PositionsByNames(gctx, values)
				if err != nil {
					return fmt.Errorf("positions by name: %w", err)
				}
				for name, p := range found {
					refs.positions[name] = p.ID
				}
				return nil
			})
		case lookupRanks:
			g.Go(func() error {
				found, err := store.RanksByNames(gctx, values)
				if err != nil {
					return fmt.Errorf("ranks by name: %w", err)
				}
				for name, r := range found {
					refs.ranks[name] = r.ID
				}
				return nil
			})
		case lookupCategories:
			g.Go(func() error {
				found, err := store.CategoriesByNames(gctx, values)
				if err != nil {
					return fmt.Errorf("categories by name: %w", err)
				}
				for name, c := range found {
					refs.categories[name] = c.ID
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// distinctValues collects the non-blank values of a field across rows, sorted.
func distinctValues(rows []domain.ParsedRow, fields []domain.CanonicalField, name string) []string {
	seen := map[string]bool{}
	var out []string
	for _, row := range rows {
		v := fieldText(row, fields, name)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
