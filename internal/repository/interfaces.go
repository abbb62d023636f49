package repository

import (
	"context"

	"payroll-import/internal/domain"
)

// ReferenceStore defines read access to the reference data imports resolve against.
// Lookups by name return a map keyed by the looked-up name; names with no row
// are simply absent. Single-row getters return nil, nil when nothing matches.
type ReferenceStore interface {
	FindPeriod(ctx context.Context, id string) (*domain.PayrollPeriod, error)
	FindPeriodByMonth(ctx context.Context, month string) (*domain.PayrollPeriod, error)

	EmployeesByNames(ctx context.Context, names []string) (map[string]domain.Employee, error)
	EmployeesByCodes(ctx context.Context, codes []string) (map[string]domain.Employee, error)
	DepartmentsByNames(ctx context.Context, names []string) (map[string]domain.Department, error)
	PositionsByNames(ctx context.Context, names []string) (map[string]domain.Position, error)
	RanksByNames(ctx context.Context, names []string) (map[string]domain.JobRank, error)
	CategoriesByNames(ctx context.Context, names []string) (map[string]domain.PersonnelCategory, error)

	ListDepartments(ctx context.Context) ([]domain.Department, error)
	ListPositions(ctx context.Context) ([]domain.Position, error)
	ListRanks(ctx context.Context) ([]domain.JobRank, error)
	ListCategories(ctx context.Context) ([]domain.PersonnelCategory, error)
	ListInsuranceTypes(ctx context.Context) ([]domain.InsuranceType, error)
	ListSalaryComponents(ctx context.Context) ([]domain.SalaryComponent, error)
}

// PayrollStore defines write access to payroll aggregates and their lines.
type PayrollStore interface {
	// EntriesForEmployees returns the existing entries of a period keyed by employee id.
	EntriesForEmployees(ctx context.Context, periodID string, employeeIDs []string) (map[string]domain.PayrollEntry, error)
	// UpsertEntries writes entries keyed on (employee_id, period_id) and returns
	// the stored rows in input order. Conflicting rows keep their stored id.
	UpsertEntries(ctx context.Context, entries []domain.PayrollEntry) ([]domain.PayrollEntry, error)
	// DeleteEntries removes entries together with every line that references them.
	DeleteEntries(ctx context.Context, ids []string) (int, error)
	UpdateEntryTotals(ctx context.Context, entries []domain.PayrollEntry) error

	DeleteItemsForEntries(ctx context.Context, entryIDs []string) (int, error)
	UpsertItems(ctx context.Context, items []domain.PayrollItem) error
	ItemsForEntries(ctx context.Context, entryIDs []string) ([]domain.PayrollItem, error)

	UpsertContributionBases(ctx context.Context, bases []domain.ContributionBase) error
	UpsertJobAssignments(ctx context.Context, rows []domain.JobAssignment) error
	UpsertCategoryAssignments(ctx context.Context, rows []domain.CategoryAssignment) error

	// PeriodRecords flattens every entry of a period for exports.
	PeriodRecords(ctx context.Context, periodID string) ([]domain.PeriodRecord, error)
}

// Store combines reference and payroll access.
type Store interface {
	ReferenceStore
	PayrollStore
}

// ImportJobRepository defines methods for import job data access.
type ImportJobRepository interface {
	CreateImportJob(ctx context.Context, job *domain.ImportJob) error
	GetImportJob(ctx context.Context, id string) (*domain.ImportJob, error)
	GetImportJobByIdempotencyToken(ctx context.Context, token string) (*domain.ImportJob, error)
	UpdateImportJob(ctx context.Context, job *domain.ImportJob) error
}
