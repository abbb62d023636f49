package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"payroll-import/internal/domain"
)

// PostgresStore implements Store using PostgreSQL. Bulk writes pass parallel
// arrays through unnest so each batch is one statement.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const periodColumns = `id::text, name, start_date, end_date, COALESCE(pay_date, end_date)`

func scanPeriod(row pgx.Row) (*domain.PayrollPeriod, error) {
	var p domain.PayrollPeriod
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.PayDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPeriod returns the period with the given id, nil when there is none.
func (s *PostgresStore) FindPeriod(ctx context.Context, id string) (*domain.PayrollPeriod, error) {
	p, err := scanPeriod(s.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE id::text = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("find period: %w", err)
	}
	return p, nil
}

// FindPeriodByMonth finds a period by "YYYY-MM": by start date, then by a name
// of the form "YYYY年MM月".
func (s *PostgresStore) FindPeriodByMonth(ctx context.Context, month string) (*domain.PayrollPeriod, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", month, err)
	}
	p, err := scanPeriod(s.pool.QueryRow(ctx, `
		SELECT `+periodColumns+`
		FROM payroll_periods
		WHERE date_trunc('month', start_date) = $1::date
		   OR name LIKE '%' || $2 || '%'
		   OR name LIKE '%' || $3 || '%'
		ORDER BY (date_trunc('month', start_date) = $1::date) DESC, start_date
		LIMIT 1
	`, start.Format("2006-01-02"), start.Format("2006年01月"), start.Format("2006年1月")))
	if err != nil {
		return nil, fmt.Errorf("find period by month: %w", err)
	}
	return p, nil
}

const employeeColumns = `id::text, COALESCE(employee_code, ''), full_name, COALESCE(id_number, ''),
	COALESCE(department_id::text, ''), COALESCE(position_id::text, ''),
	COALESCE(personnel_category_id::text, ''), is_active`

func (s *PostgresStore) queryEmployees(ctx context.Context, where string, values []string) ([]domain.Employee, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE `+where+` = ANY($1) ORDER BY is_active, id`, values)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Employee, error) {
		var e domain.Employee
		err := row.Scan(&e.ID, &e.Code, &e.FullName, &e.IDNumber, &e.DepartmentID, &e.PositionID, &e.CategoryID, &e.Active)
		return e, err
	})
}

// EmployeesByNames returns employees keyed by full name. Active employees win
// over inactive ones with the same name.
func (s *PostgresStore) EmployeesByNames(ctx context.Context, names []string) (map[string]domain.Employee, error) {
	// inactive rows come first so active ones overwrite them
	found, err := s.queryEmployees(ctx, "full_name", names)
	if err != nil {
		return nil, fmt.Errorf("employees by names: %w", err)
	}
	out := make(map[string]domain.Employee, len(found))
	for _, e := range found {
		out[e.FullName] = e
	}
	return out, nil
}

// EmployeesByCodes returns employees keyed by employee code.
func (s *PostgresStore) EmployeesByCodes(ctx context.Context, codes []string) (map[string]domain.Employee, error) {
	found, err := s.queryEmployees(ctx, "employee_code", codes)
	if err != nil {
		return nil, fmt.Errorf("employees by codes: %w", err)
	}
	out := make(map[string]domain.Employee, len(found))
	for _, e := range found {
		out[e.Code] = e
	}
	return out, nil
}

// namedRow is the id and name of a simple reference table.
type namedRow struct {
	id, name string
}

func (s *PostgresStore) namedRows(ctx context.Context, table string, names []string) ([]namedRow, error) {
	query := `SELECT id::text, name FROM ` + table + ` ORDER BY name`
	var args []any
	if names != nil {
		query = `SELECT id::text, name FROM ` + table + ` WHERE name = ANY($1) ORDER BY name`
		args = append(args, names)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (namedRow, error) {
		var n namedRow
		err := row.Scan(&n.id, &n.name)
		return n, err
	})
}

// DepartmentsByNames returns departments keyed by name.
func (s *PostgresStore) DepartmentsByNames(ctx context.Context, names []string) (map[string]domain.Department, error) {
	found, err := s.namedRows(ctx, "departments", names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Department, len(found))
	for _, n := range found {
		out[n.name] = domain.Department{ID: n.id, Name: n.name}
	}
	return out, nil
}

// PositionsByNames returns positions keyed by name.
func (s *PostgresStore) PositionsByNames(ctx context.Context, names []string) (map[string]domain.Position, error) {
	found, err := s.namedRows(ctx, "positions", names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Position, len(found))
	for _, n := range found {
		out[n.name] = domain.Position{ID: n.id, Name: n.name}
	}
	return out, nil
}

// RanksByNames returns job ranks keyed by name.
func (s *PostgresStore) RanksByNames(ctx context.Context, names []string) (map[string]domain.JobRank, error) {
	found, err := s.namedRows(ctx, "job_ranks", names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.JobRank, len(found))
	for _, n := range found {
		out[n.name] = domain.JobRank{ID: n.id, Name: n.name}
	}
	return out, nil
}

// CategoriesByNames returns personnel categories keyed by name.
func (s *PostgresStore) CategoriesByNames(ctx context.Context, names []string) (map[string]domain.PersonnelCategory, error) {
	found, err := s.queryCategories(ctx, `WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("categories by names: %w", err)
	}
	out := make(map[string]domain.PersonnelCategory, len(found))
	for _, c := range found {
		out[c.Name] = c
	}
	return out, nil
}

func (s *PostgresStore) queryCategories(ctx context.Context, where string, args ...any) ([]domain.PersonnelCategory, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, code, name, COALESCE(description, '') FROM personnel_categories `+where+` ORDER BY code`, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PersonnelCategory, error) {
		var c domain.PersonnelCategory
		err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description)
		return c, err
	})
}

func (s *PostgresStore) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	found, err := s.namedRows(ctx, "departments", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Department, len(found))
	for i, n := range found {
		out[i] = domain.Department{ID: n.id, Name: n.name}
	}
	return out, nil
}

func (s *PostgresStore) ListPositions(ctx context.Context) ([]domain.Position, error) {
	found, err := s.namedRows(ctx, "positions", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, len(found))
	for i, n := range found {
		out[i] = domain.Position{ID: n.id, Name: n.name}
	}
	return out, nil
}

func (s *PostgresStore) ListRanks(ctx context.Context) ([]domain.JobRank, error) {
	found, err := s.namedRows(ctx, "job_ranks", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.JobRank, len(found))
	for i, n := range found {
		out[i] = domain.JobRank{ID: n.id, Name: n.name}
	}
	return out, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.PersonnelCategory, error) {
	out, err := s.queryCategories(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListInsuranceTypes(ctx context.Context) ([]domain.InsuranceType, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, code, name, COALESCE(english_name, ''), is_active FROM insurance_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list insurance types: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.InsuranceType, error) {
		var it domain.InsuranceType
		err := row.Scan(&it.ID, &it.Code, &it.Name, &it.EnglishName, &it.Active)
		return it, err
	})
}

func (s *PostgresStore) ListSalaryComponents(ctx context.Context) ([]domain.SalaryComponent, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, code, name, type, is_active FROM salary_components ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list salary components: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SalaryComponent, error) {
		var c domain.SalaryComponent
		var typ string
		err := row.Scan(&c.ID, &c.Code, &c.Name, &typ, &c.Active)
		c.Type = domain.ComponentType(typ)
		return c, err
	})
}

const entryColumns = `id::text, employee_id::text, period_id::text, gross_pay::text, total_deductions::text, net_pay::text, created_at, updated_at`

func scanEntry(row pgx.CollectableRow) (domain.PayrollEntry, error) {
	var e domain.PayrollEntry
	var gross, deductions, net string
	if err := row.Scan(&e.ID, &e.EmployeeID, &e.PeriodID, &gross, &deductions, &net, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, err
	}
	e.GrossPay = decimal.RequireFromString(gross)
	e.TotalDeductions = decimal.RequireFromString(deductions)
	e.NetPay = decimal.RequireFromString(net)
	return e, nil
}

// EntriesForEmployees returns the entries of a period keyed by employee id.
func (s *PostgresStore) EntriesForEmployees(ctx context.Context, periodID string, employeeIDs []string) (map[string]domain.PayrollEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM payroll_entries
		WHERE period_id = $1::uuid AND employee_id = ANY($2::text[]::uuid[])
	`, periodID, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("entries for employees: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	out := make(map[string]domain.PayrollEntry, len(entries))
	for _, e := range entries {
		out[e.EmployeeID] = e
	}
	return out, nil
}

// UpsertEntries inserts entries keyed on (employee, period). Conflicting rows
// keep their id and totals.
func (s *PostgresStore) UpsertEntries(ctx context.Context, entries []domain.PayrollEntry) ([]domain.PayrollEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	ids := make([]string, len(entries))
	employees := make([]string, len(entries))
	periods := make([]string, len(entries))
	now := time.Now()
	for i, e := range entries {
		ids[i], employees[i], periods[i] = e.ID, e.EmployeeID, e.PeriodID
	}

	rows, err := s.pool.Query(ctx, `
		INSERT INTO payroll_entries (id, employee_id, period_id, created_at, updated_at)
		SELECT id, employee_id, period_id, $4, $4
		FROM unnest($1::text[]::uuid[], $2::text[]::uuid[], $3::text[]::uuid[]) AS t(id, employee_id, period_id)
		ON CONFLICT (employee_id, period_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING `+entryColumns, ids, employees, periods, now)
	if err != nil {
		return nil, fmt.Errorf("upsert entries: %w", err)
	}
	stored, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("upsert entries: %w", err)
	}

	byKey := make(map[string]domain.PayrollEntry, len(stored))
	for _, e := range stored {
		byKey[entryKey(e.EmployeeID, e.PeriodID)] = e
	}
	out := make([]domain.PayrollEntry, len(entries))
	for i, e := range entries {
		got, ok := byKey[entryKey(e.EmployeeID, e.PeriodID)]
		if !ok {
			return nil, fmt.Errorf("upsert entries: no row returned for employee %s", e.EmployeeID)
		}
		out[i] = got
	}
	return out, nil
}

// DeleteEntries removes entries; their lines go with them through ON DELETE CASCADE.
func (s *PostgresStore) DeleteEntries(ctx context.Context, ids []string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM payroll_entries WHERE id = ANY($1::text[]::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpdateEntryTotals stores the totals of each entry by id.
func (s *PostgresStore) UpdateEntryTotals(ctx context.Context, entries []domain.PayrollEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	gross := make([]string, len(entries))
	deductions := make([]string, len(entries))
	net := make([]string, len(entries))
	for i, e := range entries {
		ids[i], gross[i], deductions[i], net[i] = e.ID, e.GrossPay.String(), e.TotalDeductions.String(), e.NetPay.String()
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE payroll_entries AS e
		SET gross_pay = t.gross, total_deductions = t.deductions, net_pay = t.net, updated_at = NOW()
		FROM unnest($1::text[]::uuid[], $2::text[]::numeric[], $3::text[]::numeric[], $4::text[]::numeric[])
			AS t(id, gross, deductions, net)
		WHERE e.id = t.id
	`, ids, gross, deductions, net)
	if err != nil {
		return fmt.Errorf("update entry totals: %w", err)
	}
	return nil
}

// DeleteItemsForEntries removes every item of the given entries.
func (s *PostgresStore) DeleteItemsForEntries(ctx context.Context, entryIDs []string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM payroll_items WHERE entry_id = ANY($1::text[]::uuid[])`, entryIDs)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpsertItems writes items keyed on (entry, component).
func (s *PostgresStore) UpsertItems(ctx context.Context, items []domain.PayrollItem) error {
	if len(items) == 0 {
		return nil
	}
	entries := make([]string, len(items))
	components := make([]string, len(items))
	amounts := make([]string, len(items))
	for i, it := range items {
		entries[i], components[i], amounts[i] = it.EntryID, it.ComponentID, it.Amount.String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payroll_items (entry_id, component_id, amount)
		SELECT * FROM unnest($1::text[]::uuid[], $2::text[]::uuid[], $3::text[]::numeric[])
		ON CONFLICT (entry_id, component_id) DO UPDATE SET amount = EXCLUDED.amount
	`, entries, components, amounts)
	if err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}
	return nil
}

// ItemsForEntries lists the items of the given entries ordered by entry and component.
func (s *PostgresStore) ItemsForEntries(ctx context.Context, entryIDs []string) ([]domain.PayrollItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entry_id::text, component_id::text, amount::text
		FROM payroll_items
		WHERE entry_id = ANY($1::text[]::uuid[])
		ORDER BY entry_id, component_id
	`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("items for entries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PayrollItem, error) {
		var it domain.PayrollItem
		var amount string
		if err := row.Scan(&it.EntryID, &it.ComponentID, &amount); err != nil {
			return it, err
		}
		it.Amount = decimal.RequireFromString(amount)
		return it, nil
	})
}

// UpsertContributionBases writes bases keyed on (entry, insurance type).
func (s *PostgresStore) UpsertContributionBases(ctx context.Context, bases []domain.ContributionBase) error {
	if len(bases) == 0 {
		return nil
	}
	entries := make([]string, len(bases))
	types := make([]string, len(bases))
	values := make([]string, len(bases))
	for i, b := range bases {
		entries[i], types[i], values[i] = b.EntryID, b.InsuranceTypeID, b.Base.String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contribution_bases (entry_id, insurance_type_id, base)
		SELECT * FROM unnest($1::text[]::uuid[], $2::text[]::uuid[], $3::text[]::numeric[])
		ON CONFLICT (entry_id, insurance_type_id) DO UPDATE SET base = EXCLUDED.base
	`, entries, types, values)
	if err != nil {
		return fmt.Errorf("upsert contribution bases: %w", err)
	}
	return nil
}

// UpsertJobAssignments writes one assignment per entry. Blank references are
// stored as NULL.
func (s *PostgresStore) UpsertJobAssignments(ctx context.Context, rows []domain.JobAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	n := len(rows)
	entries, departments, positions, ranks, statuses := make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	hireDates := make([]*time.Time, n)
	for i, a := range rows {
		entries[i], departments[i], positions[i], ranks[i], statuses[i] = a.EntryID, a.DepartmentID, a.PositionID, a.RankID, a.Status
		hireDates[i] = a.HireDate
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_assignments (entry_id, department_id, position_id, rank_id, hire_date, employment_status)
		SELECT entry_id::uuid, NULLIF(department_id, '')::uuid, NULLIF(position_id, '')::uuid,
			NULLIF(rank_id, '')::uuid, hire_date::date, NULLIF(status, '')
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::timestamptz[], $6::text[])
			AS t(entry_id, department_id, position_id, rank_id, hire_date, status)
		ON CONFLICT (entry_id) DO UPDATE SET
			department_id = COALESCE(EXCLUDED.department_id, job_assignments.department_id),
			position_id = COALESCE(EXCLUDED.position_id, job_assignments.position_id),
			rank_id = COALESCE(EXCLUDED.rank_id, job_assignments.rank_id),
			hire_date = COALESCE(EXCLUDED.hire_date, job_assignments.hire_date),
			employment_status = COALESCE(EXCLUDED.employment_status, job_assignments.employment_status)
	`, entries, departments, positions, ranks, hireDates, statuses)
	if err != nil {
		return fmt.Errorf("upsert job assignments: %w", err)
	}
	return nil
}

// UpsertCategoryAssignments writes one category per entry.
func (s *PostgresStore) UpsertCategoryAssignments(ctx context.Context, rows []domain.CategoryAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	entries := make([]string, len(rows))
	categories := make([]string, len(rows))
	for i, a := range rows {
		entries[i], categories[i] = a.EntryID, a.CategoryID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO category_assignments (entry_id, personnel_category_id)
		SELECT * FROM unnest($1::text[]::uuid[], $2::text[]::uuid[])
		ON CONFLICT (entry_id) DO UPDATE SET personnel_category_id = EXCLUDED.personnel_category_id
	`, entries, categories)
	if err != nil {
		return fmt.Errorf("upsert category assignments: %w", err)
	}
	return nil
}

// PeriodRecords flattens the entries of a period ordered by employee code.
// Job and category assignments of the entry override the employee's defaults.
func (s *PostgresStore) PeriodRecords(ctx context.Context, periodID string) ([]domain.PeriodRecord, error) {
	// one snapshot for the entries and their lines
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT pe.id::text, emp.id::text, COALESCE(emp.employee_code, ''), emp.full_name, COALESCE(emp.id_number, ''),
			COALESCE(d.name, ''), COALESCE(p.name, ''), COALESCE(r.name, ''),
			COALESCE(c.name, ''), COALESCE(c.code, ''), emp.is_active,
			pe.gross_pay::text, pe.total_deductions::text, pe.net_pay::text
		FROM payroll_entries pe
		JOIN employees emp ON emp.id = pe.employee_id
		LEFT JOIN job_assignments ja ON ja.entry_id = pe.id
		LEFT JOIN departments d ON d.id = COALESCE(ja.department_id, emp.department_id)
		LEFT JOIN positions p ON p.id = COALESCE(ja.position_id, emp.position_id)
		LEFT JOIN job_ranks r ON r.id = ja.rank_id
		LEFT JOIN category_assignments ca ON ca.entry_id = pe.id
		LEFT JOIN personnel_categories c ON c.id = COALESCE(ca.personnel_category_id, emp.personnel_category_id)
		WHERE pe.period_id = $1::uuid
		ORDER BY emp.employee_code NULLS LAST, emp.id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("period records: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PeriodRecord, error) {
		var rec domain.PeriodRecord
		var gross, deductions, net string
		err := row.Scan(&rec.EntryID, &rec.EmployeeID, &rec.EmployeeCode, &rec.EmployeeName, &rec.IDNumber,
			&rec.Department, &rec.Position, &rec.Rank, &rec.Category, &rec.CategoryCode, &rec.Active,
			&gross, &deductions, &net)
		if err != nil {
			return rec, err
		}
		rec.GrossPay = decimal.RequireFromString(gross)
		rec.TotalDeductions = decimal.RequireFromString(deductions)
		rec.NetPay = decimal.RequireFromString(net)
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan period records: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	index := make(map[string]int, len(records))
	for i, rec := range records {
		index[rec.EntryID] = i
	}

	itemRows, err := tx.Query(ctx, `
		SELECT pi.entry_id::text, sc.id::text, sc.name, sc.type, pi.amount::text
		FROM payroll_items pi
		JOIN payroll_entries pe ON pe.id = pi.entry_id
		JOIN salary_components sc ON sc.id = pi.component_id
		WHERE pe.period_id = $1::uuid
		ORDER BY pi.entry_id, sc.id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("period items: %w", err)
	}
	var entryID, id, name, typ, amount string
	_, err = pgx.ForEachRow(itemRows, []any{&entryID, &id, &name, &typ, &amount}, func() error {
		i := index[entryID]
		records[i].Items = append(records[i].Items, domain.ItemAmount{
			ComponentID: id, Name: name, Type: domain.ComponentType(typ), Amount: decimal.RequireFromString(amount),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan period items: %w", err)
	}

	baseRows, err := tx.Query(ctx, `
		SELECT cb.entry_id::text, it.id::text, it.name, cb.base::text
		FROM contribution_bases cb
		JOIN payroll_entries pe ON pe.id = cb.entry_id
		JOIN insurance_types it ON it.id = cb.insurance_type_id
		WHERE pe.period_id = $1::uuid
		ORDER BY cb.entry_id, it.id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("period bases: %w", err)
	}
	_, err = pgx.ForEachRow(baseRows, []any{&entryID, &id, &name, &amount}, func() error {
		i := index[entryID]
		records[i].Bases = append(records[i].Bases, domain.BaseAmount{
			InsuranceTypeID: id, Name: name, Base: decimal.RequireFromString(amount),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan period bases: %w", err)
	}
	return records, nil
}
