// Package catalog supplies the canonical fields a workbook is reconciled against.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"payroll-import/internal/domain"
	"payroll-import/internal/logger"
)

// Source is the reference data the catalog is built from.
type Source interface {
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	ListPositions(ctx context.Context) ([]domain.Position, error)
	ListRanks(ctx context.Context) ([]domain.JobRank, error)
	ListCategories(ctx context.Context) ([]domain.PersonnelCategory, error)
	ListInsuranceTypes(ctx context.Context) ([]domain.InsuranceType, error)
	ListSalaryComponents(ctx context.Context) ([]domain.SalaryComponent, error)
}

// earningsTypes are the component types offered for earnings imports.
var earningsTypes = map[domain.ComponentType]bool{
	domain.ComponentEarning:        true,
	domain.ComponentBenefit:        true,
	domain.ComponentPersonalTax:    true,
	domain.ComponentOtherDeduction: true,
}

// Catalog builds canonical field lists per dataset group.
type Catalog struct {
	source Source
}

// New creates a Catalog.
func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// Fields returns the canonical fields for a group. When the reference store
// fails the result is empty and the failure is logged; callers treat an empty
// catalog as a soft failure.
func (c *Catalog) Fields(ctx context.Context, group domain.DatasetGroup) []domain.CanonicalField {
	fields, err := c.build(ctx, group)
	if err != nil {
		logger.WarnContext(ctx, "field catalog unavailable",
			slog.String("dataset_group", string(group)),
			slog.String("error", err.Error()),
		)
		return []domain.CanonicalField{}
	}
	return fields
}

// RequiredFields returns only the required fields of a group.
func (c *Catalog) RequiredFields(ctx context.Context, group domain.DatasetGroup) []domain.CanonicalField {
	var out []domain.CanonicalField
	for _, f := range c.Fields(ctx, group) {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Search ranks the fields of a group whose labels fuzzily contain query.
func (c *Catalog) Search(ctx context.Context, group domain.DatasetGroup, query string) []domain.CanonicalField {
	fields := c.Fields(ctx, group)
	if query == "" {
		return fields
	}

	var targets []string
	owner := map[string]int{}
	for i, f := range fields {
		for _, label := range f.Labels() {
			if _, ok := owner[label]; !ok {
				owner[label] = i
				targets = append(targets, label)
			}
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Sort(ranks)

	var out []domain.CanonicalField
	seen := map[int]bool{}
	for _, r := range ranks {
		i := owner[r.Target]
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, fields[i])
	}
	return out
}

func (c *Catalog) build(ctx context.Context, group domain.DatasetGroup) ([]domain.CanonicalField, error) {
	fields := basicFields(group)

	switch group {
	case domain.GroupEarnings:
		components, err := c.source.ListSalaryComponents(ctx)
		if err != nil {
			return nil, fmt.Errorf("list salary components: %w", err)
		}
		fields = append(fields, componentFields(components)...)

	case domain.GroupBases:
		types, err := c.source.ListInsuranceTypes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list insurance types: %w", err)
		}
		fields = append(fields, baseFields(types)...)

	case domain.GroupJob:
		extra, err := c.jobFields(ctx)
		if err != nil {
			return nil, err
		}
		fields = append(fields, extra...)

	case domain.GroupCategory:
		categories, err := c.source.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		fields = append(fields, categoryField)
		for _, cat := range categories {
			fields = append(fields, valueField(domain.FieldCategory, group, cat.ID, cat.Name))
		}

	default:
		return nil, fmt.Errorf("unknown dataset group %q", group)
	}

	return fields, nil
}

func (c *Catalog) jobFields(ctx context.Context) ([]domain.CanonicalField, error) {
	departments, err := c.source.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	positions, err := c.source.ListPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	ranks, err := c.source.ListRanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ranks: %w", err)
	}

	fields := append([]domain.CanonicalField{}, jobFields...)
	for _, d := range departments {
		fields = append(fields, valueField(domain.FieldDepartment, domain.GroupJob, d.ID, d.Name))
	}
	for _, p := range positions {
		fields = append(fields, valueField(domain.FieldPosition, domain.GroupJob, p.ID, p.Name))
	}
	for _, r := range ranks {
		fields = append(fields, valueField(domain.FieldRank, domain.GroupJob, r.ID, r.Name))
	}
	return fields, nil
}

func componentFields(components []domain.SalaryComponent) []domain.CanonicalField {
	var out []domain.CanonicalField
	for _, sc := range components {
		if !sc.Active || !earningsTypes[sc.Type] {
			continue
		}
		aliases := []string{sc.Code}
		out = append(out, domain.CanonicalField{
			Name:        "component:" + sc.Code,
			DisplayName: sc.Name,
			Aliases:     aliases,
			Group:       domain.GroupEarnings,
			Kind:        domain.KindSalaryComponent,
			RefID:       sc.ID,
		})
	}
	return out
}

func baseFields(types []domain.InsuranceType) []domain.CanonicalField {
	var out []domain.CanonicalField
	for _, it := range types {
		if !it.Active {
			continue
		}
		aliases := []string{it.Name + "缴费基数"}
		if it.EnglishName != "" {
			aliases = append(aliases, it.EnglishName+" base")
		}
		out = append(out, domain.CanonicalField{
			Name:        "base:" + it.Code,
			DisplayName: it.Name + "基数",
			Aliases:     aliases,
			Group:       domain.GroupBases,
			Kind:        domain.KindContributionBase,
			RefID:       it.ID,
		})
	}
	return out
}

// valueField registers a concrete reference value as a candidate so that a
// column literally named after it maps onto the owning field.
func valueField(owner string, group domain.DatasetGroup, id, name string) domain.CanonicalField {
	return domain.CanonicalField{
		Name:        owner + ":" + id,
		DisplayName: name,
		Group:       group,
		Kind:        domain.KindAssignment,
		RefID:       id,
		ValueOf:     owner,
	}
}
