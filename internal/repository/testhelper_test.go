package repository_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"payroll-import/internal/infrastructure/database"
	"payroll-import/internal/repository"
)

// schemaVersion is the number of the newest file in migrations/.
const schemaVersion = 3

// referenceTables are truncated between store tests; payroll tables follow
// through CASCADE.
var referenceTables = []string{
	"employees", "payroll_periods", "salary_components", "insurance_types",
	"personnel_categories", "job_ranks", "positions", "departments",
}

// TestDB is a migrated PostgreSQL container for store tests.
type TestDB struct {
	Pool      *pgxpool.Pool
	Container testcontainers.Container
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container, migrates it to the latest schema
// and connects a pool through the same code path the server uses.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("payroll_test"),
		postgres.WithUsername("payroll"),
		postgres.WithPassword("payroll"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	tdb := &TestDB{Container: pgContainer}

	tdb.ConnStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tdb.Cleanup(t)
		t.Fatalf("connection string: %v", err)
	}

	version, err := database.Migrate(tdb.ConnStr, migrationsPath)
	if err != nil {
		tdb.Cleanup(t)
		t.Fatalf("migrate: %v", err)
	}
	if version != schemaVersion {
		tdb.Cleanup(t)
		t.Fatalf("schema version = %d, want %d", version, schemaVersion)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		tdb.Cleanup(t)
		t.Fatalf("container host: %v", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		tdb.Cleanup(t)
		t.Fatalf("container port: %v", err)
	}
	tdb.Pool, err = database.NewPostgres(ctx, database.PoolConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "payroll",
		Password: "payroll",
		Database: "payroll_test",
		SSLMode:  "disable",
		MaxConns: 4,
	})
	if err != nil {
		tdb.Cleanup(t)
		t.Fatalf("connect: %v", err)
	}
	return tdb
}

// Cleanup closes the pool and terminates the container.
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	if tdb.Pool != nil {
		tdb.Pool.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
}

// TruncateTables clears all data from tables for test isolation
func (tdb *TestDB) TruncateTables(t *testing.T, tables ...string) {
	t.Helper()
	ctx := context.Background()
	for _, table := range tables {
		_, err := tdb.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("Failed to truncate table %s: %v", table, err)
		}
	}
}

// InsertSeed writes reference data into the database.
func (tdb *TestDB) InsertSeed(t *testing.T, seed repository.Seed) {
	t.Helper()
	ctx := context.Background()
	exec := func(query string, args ...any) {
		if _, err := tdb.Pool.Exec(ctx, query, args...); err != nil {
			t.Fatalf("Failed to insert seed: %v", err)
		}
	}
	nullable := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}

	for _, d := range seed.Departments {
		exec(`INSERT INTO departments (id, name) VALUES ($1, $2)`, d.ID, d.Name)
	}
	for _, p := range seed.Positions {
		exec(`INSERT INTO positions (id, name) VALUES ($1, $2)`, p.ID, p.Name)
	}
	for _, r := range seed.Ranks {
		exec(`INSERT INTO job_ranks (id, name) VALUES ($1, $2)`, r.ID, r.Name)
	}
	for _, c := range seed.Categories {
		exec(`INSERT INTO personnel_categories (id, code, name) VALUES ($1, $2, $3)`, c.ID, c.Code, c.Name)
	}
	for _, it := range seed.InsuranceTypes {
		exec(`INSERT INTO insurance_types (id, code, name, english_name, is_active) VALUES ($1, $2, $3, $4, $5)`,
			it.ID, it.Code, it.Name, nullable(it.EnglishName), it.Active)
	}
	for _, c := range seed.Components {
		exec(`INSERT INTO salary_components (id, code, name, type, is_active) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Code, c.Name, string(c.Type), c.Active)
	}
	for _, p := range seed.Periods {
		exec(`INSERT INTO payroll_periods (id, name, start_date, end_date, pay_date) VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.Name, p.StartDate, p.EndDate, p.PayDate)
	}
	for _, e := range seed.Employees {
		exec(`INSERT INTO employees (id, employee_code, full_name, id_number, department_id, position_id, personnel_category_id, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, nullable(e.Code), e.FullName, nullable(e.IDNumber), nullable(e.DepartmentID),
			nullable(e.PositionID), nullable(e.CategoryID), e.Active)
	}
}
