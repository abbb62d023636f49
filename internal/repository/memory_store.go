package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payroll-import/internal/domain"
)

// MemoryStore is a Store held in process memory. It enforces the same unique
// keys and cascades as the Postgres schema.
type MemoryStore struct {
	mu sync.RWMutex

	employees   []domain.Employee
	departments []domain.Department
	positions   []domain.Position
	ranks       []domain.JobRank
	categories  []domain.PersonnelCategory
	insurance   []domain.InsuranceType
	components  []domain.SalaryComponent
	periods     []domain.PayrollPeriod

	entries    map[string]*domain.PayrollEntry
	entryKey   map[string]string // employee|period -> entry id
	items      map[string]map[string]decimal.Decimal
	bases      map[string]map[string]decimal.Decimal
	jobs       map[string]domain.JobAssignment
	categoryOf map[string]domain.CategoryAssignment

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    map[string]*domain.PayrollEntry{},
		entryKey:   map[string]string{},
		items:      map[string]map[string]decimal.Decimal{},
		bases:      map[string]map[string]decimal.Decimal{},
		jobs:       map[string]domain.JobAssignment{},
		categoryOf: map[string]domain.CategoryAssignment{},
		now:        time.Now,
	}
}

// Seed is the reference data a MemoryStore can be loaded with.
type Seed struct {
	Employees      []domain.Employee          `json:"employees"`
	Departments    []domain.Department        `json:"departments"`
	Positions      []domain.Position          `json:"positions"`
	Ranks          []domain.JobRank           `json:"ranks"`
	Categories     []domain.PersonnelCategory `json:"personnel_categories"`
	InsuranceTypes []domain.InsuranceType     `json:"insurance_types"`
	Components     []domain.SalaryComponent   `json:"salary_components"`
	Periods        []domain.PayrollPeriod     `json:"periods"`
}

// LoadSeed decodes a JSON Seed from r and adds it to the store.
func (s *MemoryStore) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	s.Apply(seed)
	return nil
}

// Apply adds every row of seed to the store.
func (s *MemoryStore) Apply(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = append(s.employees, seed.Employees...)
	s.departments = append(s.departments, seed.Departments...)
	s.positions = append(s.positions, seed.Positions...)
	s.ranks = append(s.ranks, seed.Ranks...)
	s.categories = append(s.categories, seed.Categories...)
	s.insurance = append(s.insurance, seed.InsuranceTypes...)
	s.components = append(s.components, seed.Components...)
	s.periods = append(s.periods, seed.Periods...)
}

func entryKey(employeeID, periodID string) string {
	return employeeID + "|" + periodID
}

// FindPeriod returns the period with the given id, nil when there is none.
func (s *MemoryStore) FindPeriod(ctx context.Context, id string) (*domain.PayrollPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.periods {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

// FindPeriodByMonth finds a period by "YYYY-MM": by start date, then by a name
// of the form "YYYY年MM月".
func (s *MemoryStore) FindPeriodByMonth(ctx context.Context, month string) (*domain.PayrollPeriod, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", month, err)
	}
	names := []string{start.Format("2006年01月"), start.Format("2006年1月")}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.periods {
		if p.StartDate.Year() == start.Year() && p.StartDate.Month() == start.Month() {
			p := p
			return &p, nil
		}
	}
	for _, p := range s.periods {
		for _, n := range names {
			if strings.Contains(p.Name, n) {
				p := p
				return &p, nil
			}
		}
	}
	return nil, nil
}

// EmployeesByNames returns employees keyed by full name. Active employees win
// over inactive ones with the same name.
func (s *MemoryStore) EmployeesByNames(ctx context.Context, names []string) (map[string]domain.Employee, error) {
	want := toSet(names)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.Employee{}
	for _, e := range s.employees {
		if !want[e.FullName] {
			continue
		}
		if prev, ok := out[e.FullName]; ok && (prev.Active || !e.Active) {
			continue
		}
		out[e.FullName] = e
	}
	return out, nil
}

// EmployeesByCodes returns employees keyed by employee code.
func (s *MemoryStore) EmployeesByCodes(ctx context.Context, codes []string) (map[string]domain.Employee, error) {
	want := toSet(codes)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.Employee{}
	for _, e := range s.employees {
		if want[e.Code] {
			out[e.Code] = e
		}
	}
	return out, nil
}

// DepartmentsByNames returns departments keyed by name.
func (s *MemoryStore) DepartmentsByNames(ctx context.Context, names []string) (map[string]domain.Department, error) {
	want := toSet(names)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.Department{}
	for _, d := range s.departments {
		if want[d.Name] {
			out[d.Name] = d
		}
	}
	return out, nil
}

// PositionsByNames returns positions keyed by name.
func (s *MemoryStore) PositionsByNames(ctx context.Context, names []string) (map[string]domain.Position, error) {
	want := toSet(names)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.Position{}
	for _, p := range s.positions {
		if want[p.Name] {
			out[p.Name] = p
		}
	}
	return out, nil
}

// RanksByNames returns job ranks keyed by name.
func (s *MemoryStore) RanksByNames(ctx context.Context, names []string) (map[string]domain.JobRank, error) {
	want := toSet(names)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.JobRank{}
	for _, r := range s.ranks {
		if want[r.Name] {
			out[r.Name] = r
		}
	}
	return out, nil
}

// CategoriesByNames returns personnel categories keyed by name.
func (s *MemoryStore) CategoriesByNames(ctx context.Context, names []string) (map[string]domain.PersonnelCategory, error) {
	want := toSet(names)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.PersonnelCategory{}
	for _, c := range s.categories {
		if want[c.Name] {
			out[c.Name] = c
		}
	}
	return out, nil
}

func (s *MemoryStore) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Department(nil), s.departments...), nil
}

func (s *MemoryStore) ListPositions(ctx context.Context) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Position(nil), s.positions...), nil
}

func (s *MemoryStore) ListRanks(ctx context.Context) ([]domain.JobRank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.JobRank(nil), s.ranks...), nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]domain.PersonnelCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PersonnelCategory(nil), s.categories...), nil
}

func (s *MemoryStore) ListInsuranceTypes(ctx context.Context) ([]domain.InsuranceType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.InsuranceType(nil), s.insurance...), nil
}

func (s *MemoryStore) ListSalaryComponents(ctx context.Context) ([]domain.SalaryComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SalaryComponent(nil), s.components...), nil
}

// EntriesForEmployees returns the entries of a period keyed by employee id.
func (s *MemoryStore) EntriesForEmployees(ctx context.Context, periodID string, employeeIDs []string) (map[string]domain.PayrollEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]domain.PayrollEntry{}
	for _, emp := range employeeIDs {
		if id, ok := s.entryKey[entryKey(emp, periodID)]; ok {
			out[emp] = *s.entries[id]
		}
	}
	return out, nil
}

// UpsertEntries inserts entries keyed on (employee, period). Conflicting rows
// keep their id and totals.
func (s *MemoryStore) UpsertEntries(ctx context.Context, entries []domain.PayrollEntry) ([]domain.PayrollEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]domain.PayrollEntry, len(entries))
	for i, e := range entries {
		key := entryKey(e.EmployeeID, e.PeriodID)
		if id, ok := s.entryKey[key]; ok {
			stored := s.entries[id]
			stored.UpdatedAt = now
			out[i] = *stored
			continue
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if _, taken := s.entries[e.ID]; taken {
			return nil, fmt.Errorf("payroll entry %s already exists", e.ID)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		stored := e
		s.entries[e.ID] = &stored
		s.entryKey[key] = e.ID
		out[i] = stored
	}
	return out, nil
}

// DeleteEntries removes entries and everything that references them.
func (s *MemoryStore) DeleteEntries(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		delete(s.entryKey, entryKey(e.EmployeeID, e.PeriodID))
		delete(s.entries, id)
		delete(s.items, id)
		delete(s.bases, id)
		delete(s.jobs, id)
		delete(s.categoryOf, id)
		n++
	}
	return n, nil
}

// UpdateEntryTotals stores the totals of each entry by id.
func (s *MemoryStore) UpdateEntryTotals(ctx context.Context, entries []domain.PayrollEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, e := range entries {
		stored, ok := s.entries[e.ID]
		if !ok {
			return fmt.Errorf("payroll entry %s does not exist", e.ID)
		}
		stored.GrossPay = e.GrossPay
		stored.TotalDeductions = e.TotalDeductions
		stored.NetPay = e.NetPay
		stored.UpdatedAt = now
	}
	return nil
}

// DeleteItemsForEntries removes every item of the given entries.
func (s *MemoryStore) DeleteItemsForEntries(ctx context.Context, entryIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range entryIDs {
		n += len(s.items[id])
		delete(s.items, id)
	}
	return n, nil
}

// UpsertItems writes items keyed on (entry, component). The batch is applied
// entirely or not at all.
func (s *MemoryStore) UpsertItems(ctx context.Context, items []domain.PayrollItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if _, ok := s.entries[it.EntryID]; !ok {
			return fmt.Errorf("payroll entry %s does not exist", it.EntryID)
		}
	}
	for _, it := range items {
		if s.items[it.EntryID] == nil {
			s.items[it.EntryID] = map[string]decimal.Decimal{}
		}
		s.items[it.EntryID][it.ComponentID] = it.Amount
	}
	return nil
}

// ItemsForEntries lists the items of the given entries ordered by entry and component.
func (s *MemoryStore) ItemsForEntries(ctx context.Context, entryIDs []string) ([]domain.PayrollItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PayrollItem
	for _, id := range entryIDs {
		for comp, amount := range s.items[id] {
			out = append(out, domain.PayrollItem{EntryID: id, ComponentID: comp, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryID != out[j].EntryID {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].ComponentID < out[j].ComponentID
	})
	return out, nil
}

// UpsertContributionBases writes bases keyed on (entry, insurance type).
func (s *MemoryStore) UpsertContributionBases(ctx context.Context, bases []domain.ContributionBase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bases {
		if _, ok := s.entries[b.EntryID]; !ok {
			return fmt.Errorf("payroll entry %s does not exist", b.EntryID)
		}
	}
	for _, b := range bases {
		if s.bases[b.EntryID] == nil {
			s.bases[b.EntryID] = map[string]decimal.Decimal{}
		}
		s.bases[b.EntryID][b.InsuranceTypeID] = b.Base
	}
	return nil
}

// UpsertJobAssignments writes one assignment per entry.
func (s *MemoryStore) UpsertJobAssignments(ctx context.Context, rows []domain.JobAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range rows {
		if _, ok := s.entries[a.EntryID]; !ok {
			return fmt.Errorf("payroll entry %s does not exist", a.EntryID)
		}
	}
	for _, a := range rows {
		s.jobs[a.EntryID] = a
	}
	return nil
}

// UpsertCategoryAssignments writes one category per entry.
func (s *MemoryStore) UpsertCategoryAssignments(ctx context.Context, rows []domain.CategoryAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range rows {
		if _, ok := s.entries[a.EntryID]; !ok {
			return fmt.Errorf("payroll entry %s does not exist", a.EntryID)
		}
	}
	for _, a := range rows {
		s.categoryOf[a.EntryID] = a
	}
	return nil
}

// PeriodRecords flattens the entries of a period ordered by employee code.
func (s *MemoryStore) PeriodRecords(ctx context.Context, periodID string) ([]domain.PeriodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make(map[string]domain.Employee, len(s.employees))
	for _, e := range s.employees {
		employees[e.ID] = e
	}
	deptName := namesOf(s.departments, func(d domain.Department) (string, string) { return d.ID, d.Name })
	posName := namesOf(s.positions, func(p domain.Position) (string, string) { return p.ID, p.Name })
	rankName := namesOf(s.ranks, func(r domain.JobRank) (string, string) { return r.ID, r.Name })
	categories := make(map[string]domain.PersonnelCategory, len(s.categories))
	for _, c := range s.categories {
		categories[c.ID] = c
	}
	components := make(map[string]domain.SalaryComponent, len(s.components))
	for _, c := range s.components {
		components[c.ID] = c
	}
	insurance := make(map[string]domain.InsuranceType, len(s.insurance))
	for _, it := range s.insurance {
		insurance[it.ID] = it
	}

	var out []domain.PeriodRecord
	for _, e := range s.entries {
		if e.PeriodID != periodID {
			continue
		}
		emp := employees[e.EmployeeID]
		rec := domain.PeriodRecord{
			EntryID:         e.ID,
			EmployeeID:      e.EmployeeID,
			EmployeeCode:    emp.Code,
			EmployeeName:    emp.FullName,
			IDNumber:        emp.IDNumber,
			Department:      deptName[emp.DepartmentID],
			Position:        posName[emp.PositionID],
			Active:          emp.Active,
			GrossPay:        e.GrossPay,
			TotalDeductions: e.TotalDeductions,
			NetPay:          e.NetPay,
		}
		if job, ok := s.jobs[e.ID]; ok {
			if job.DepartmentID != "" {
				rec.Department = deptName[job.DepartmentID]
			}
			if job.PositionID != "" {
				rec.Position = posName[job.PositionID]
			}
			rec.Rank = rankName[job.RankID]
		}
		categoryID := emp.CategoryID
		if a, ok := s.categoryOf[e.ID]; ok {
			categoryID = a.CategoryID
		}
		if c, ok := categories[categoryID]; ok {
			rec.Category = c.Name
			rec.CategoryCode = c.Code
		}
		for comp, amount := range s.items[e.ID] {
			c := components[comp]
			rec.Items = append(rec.Items, domain.ItemAmount{ComponentID: comp, Name: c.Name, Type: c.Type, Amount: amount})
		}
		sort.Slice(rec.Items, func(i, j int) bool { return rec.Items[i].ComponentID < rec.Items[j].ComponentID })
		for typ, base := range s.bases[e.ID] {
			rec.Bases = append(rec.Bases, domain.BaseAmount{InsuranceTypeID: typ, Name: insurance[typ].Name, Base: base})
		}
		sort.Slice(rec.Bases, func(i, j int) bool { return rec.Bases[i].InsuranceTypeID < rec.Bases[j].InsuranceTypeID })
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeCode != out[j].EmployeeCode {
			return out[i].EmployeeCode < out[j].EmployeeCode
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func toSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

func namesOf[T any](rows []T, key func(T) (string, string)) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		id, name := key(r)
		out[id] = name
	}
	return out
}
