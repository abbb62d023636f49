package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-import/internal/catalog"
	"payroll-import/internal/domain"
	"payroll-import/internal/progress"
	"payroll-import/internal/repository"
)

const periodID = "period-2024-03"

var testSeed = repository.Seed{
	Employees: []domain.Employee{
		{ID: "emp-zhang", Code: "E001", FullName: "张三", IDNumber: "110101199001011234", DepartmentID: "dept-fin", Active: true},
		{ID: "emp-li", Code: "E002", FullName: "李四", Active: true},
		{ID: "emp-wang", Code: "E003", FullName: "王五", Active: true},
	},
	Departments: []domain.Department{{ID: "dept-fin", Name: "财务部"}, {ID: "dept-hr", Name: "人事部"}},
	Positions:   []domain.Position{{ID: "pos-mgr", Name: "经理"}},
	Ranks:       []domain.JobRank{{ID: "rank-sr", Name: "高级"}},
	Categories: []domain.PersonnelCategory{
		{ID: "cat-reg", Code: "REG", Name: "正编"},
		{ID: "cat-con", Code: "CON", Name: "聘用"},
	},
	InsuranceTypes: []domain.InsuranceType{
		{ID: "ins-pension", Code: "PENSION", Name: "养老保险", Active: true},
		{ID: "ins-medical", Code: "MEDICAL", Name: "医疗保险", Active: true},
	},
	Components: []domain.SalaryComponent{
		{ID: "comp-basic", Code: "BASIC", Name: "基本工资", Type: domain.ComponentEarning, Active: true},
		{ID: "comp-bonus", Code: "BONUS", Name: "绩效奖金", Type: domain.ComponentBenefit, Active: true},
		{ID: "comp-allow", Code: "ALLOW", Name: "交通津贴", Type: domain.ComponentBenefit, Active: true},
		{ID: "comp-tax", Code: "TAX", Name: "个人所得税", Type: domain.ComponentPersonalTax, Active: true},
	},
	Periods: []domain.PayrollPeriod{{ID: periodID, Name: "2024年03月"}},
}

type testEnv struct {
	store *repository.MemoryStore
	pipe  *Pipeline
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	store.Apply(testSeed)
	return &testEnv{store: store, pipe: New(store, catalog.New(store), nil, nil, 0)}
}

// withStore rebuilds the pipeline on top of a wrapped store.
func (e *testEnv) withStore(store repository.Store, batchSize int) *Pipeline {
	return New(store, catalog.New(e.store), nil, nil, batchSize)
}

// sheet builds rows numbered as if they followed a header row.
func sheet(header []string, records ...[]string) []domain.ParsedRow {
	rows := make([]domain.ParsedRow, len(records))
	for i, rec := range records {
		values := make([]domain.CellValue, len(rec))
		for j, raw := range rec {
			values[j] = domain.ParseCell(raw)
		}
		rows[i] = domain.NewParsedRow(i+2, header, values)
	}
	return rows
}

func newTask(group domain.DatasetGroup, rows []domain.ParsedRow) *domain.ImportTask {
	return &domain.ImportTask{ID: "task-1", PeriodID: periodID, Group: group, Rows: rows}
}

// seedItems gives an employee an existing entry holding the given items.
func (e *testEnv) seedItems(t *testing.T, employeeID string, amounts map[string]string) string {
	t.Helper()
	ctx := context.Background()
	stored, err := e.store.UpsertEntries(ctx, []domain.PayrollEntry{{ID: "entry-" + employeeID, EmployeeID: employeeID, PeriodID: periodID}})
	require.NoError(t, err)
	var items []domain.PayrollItem
	for comp, amount := range amounts {
		items = append(items, domain.PayrollItem{EntryID: stored[0].ID, ComponentID: comp, Amount: decimal.RequireFromString(amount)})
	}
	require.NoError(t, e.store.UpsertItems(ctx, items))
	return stored[0].ID
}

// items returns component id -> amount of an employee's entry.
func (e *testEnv) items(t *testing.T, employeeID string) map[string]string {
	t.Helper()
	ctx := context.Background()
	entries, err := e.store.EntriesForEmployees(ctx, periodID, []string{employeeID})
	require.NoError(t, err)
	entry, ok := entries[employeeID]
	if !ok {
		return nil
	}
	items, err := e.store.ItemsForEntries(ctx, []string{entry.ID})
	require.NoError(t, err)
	out := map[string]string{}
	for _, it := range items {
		out[it.ComponentID] = it.Amount.String()
	}
	return out
}

func (e *testEnv) records(t *testing.T) map[string]domain.PeriodRecord {
	t.Helper()
	recs, err := e.store.PeriodRecords(context.Background(), periodID)
	require.NoError(t, err)
	out := map[string]domain.PeriodRecord{}
	for _, r := range recs {
		out[r.EmployeeCode] = r
	}
	return out
}

func kinds(errs []domain.RecordError) []domain.ErrorKind {
	out := make([]domain.ErrorKind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind
	}
	return out
}

var earningsHeader = []string{"姓名", "工号", "基本工资", "绩效奖金", "个人所得税"}

func TestRun_EarningsUpsert(t *testing.T) {
	env := newTestEnv(t)
	existing := env.seedItems(t, "emp-zhang", map[string]string{"comp-basic": "7000"})

	rows := sheet(earningsHeader,
		[]string{"张三", "E001", "8000", "1000", "300"},
		[]string{"李四", "E002", "6000", "", "100"},
		[]string{"王五", "E003", "5000", "500", ""},
	)
	tracker := progress.New()
	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, tracker)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.TotalRows)
	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Zero(t, outcome.FailedCount)
	assert.Zero(t, outcome.SkippedCount)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, domain.JobStatusCompleted, outcome.Status())
	assert.Equal(t, []string{existing}, outcome.UpdatedIDs)
	assert.Len(t, outcome.CreatedIDs, 2)
	assert.Nil(t, outcome.RollbackToken, "imports that touched existing entries cannot be rolled back")

	assert.Equal(t, map[string]string{"comp-basic": "8000", "comp-bonus": "1000", "comp-tax": "300"}, env.items(t, "emp-zhang"))
	assert.Equal(t, map[string]string{"comp-basic": "6000", "comp-tax": "100"}, env.items(t, "emp-li"))

	recs := env.records(t)
	assert.Equal(t, "9000", recs["E001"].GrossPay.String())
	assert.Equal(t, "300", recs["E001"].TotalDeductions.String())
	assert.Equal(t, "8700", recs["E001"].NetPay.String())
	assert.Equal(t, "5900", recs["E002"].NetPay.String())
	assert.Equal(t, "5500", recs["E003"].NetPay.String())

	snap := tracker.Snapshot()
	assert.Equal(t, domain.PhaseCompleted, snap.Phase)
	assert.Equal(t, 3, snap.Global.TotalRecords)
	assert.Equal(t, 3, snap.Global.ProcessedRecords)
	assert.Equal(t, 3, snap.Current.SuccessCount)
	assert.Equal(t, 1, snap.Global.ProcessedGroups)
}

func TestRun_ReplaceClearsExistingItems(t *testing.T) {
	rows := func() []domain.ParsedRow {
		return sheet([]string{"姓名", "基本工资", "个人所得税"}, []string{"张三", "8000", "300"})
	}
	existing := map[string]string{"comp-basic": "7000", "comp-bonus": "900", "comp-allow": "50", "comp-tax": "200"}

	t.Run("replace", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedItems(t, "emp-zhang", existing)

		task := newTask(domain.GroupEarnings, rows())
		task.Mode = domain.ModeReplace
		outcome, err := env.pipe.Run(context.Background(), task, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, outcome.SuccessCount)
		assert.Equal(t, map[string]string{"comp-basic": "8000", "comp-tax": "300"}, env.items(t, "emp-zhang"))
		assert.Equal(t, "7700", env.records(t)["E001"].NetPay.String())
	})

	t.Run("upsert keeps unlisted items", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedItems(t, "emp-zhang", existing)

		outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows()), nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, outcome.SuccessCount)
		assert.Equal(t, map[string]string{"comp-basic": "8000", "comp-bonus": "900", "comp-allow": "50", "comp-tax": "300"}, env.items(t, "emp-zhang"))
		assert.Equal(t, "8650", env.records(t)["E001"].NetPay.String())
	})
}

func TestRun_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	rows := func() []domain.ParsedRow {
		return sheet(earningsHeader,
			[]string{"张三", "E001", "8000", "1000", "300"},
			[]string{"李四", "E002", "6000", "", "100"},
		)
	}

	first, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows()), nil, nil)
	require.NoError(t, err)
	assert.Len(t, first.CreatedIDs, 2)
	before := env.records(t)

	second, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows()), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, second.CreatedIDs)
	assert.ElementsMatch(t, first.CreatedIDs, second.UpdatedIDs)
	assert.Equal(t, 2, second.SuccessCount)

	after := env.records(t)
	require.Len(t, after, 2)
	for code, rec := range before {
		assert.Equal(t, rec.EntryID, after[code].EntryID)
		assert.Equal(t, len(rec.Items), len(after[code].Items))
		assert.True(t, rec.NetPay.Equal(after[code].NetPay))
	}
}

func TestRun_PeriodNotFound(t *testing.T) {
	env := newTestEnv(t)
	task := newTask(domain.GroupEarnings, sheet(earningsHeader,
		[]string{"张三", "E001", "8000", "", ""},
		[]string{"李四", "E002", "6000", "", ""},
	))
	task.PeriodID = "period-missing"

	tracker := progress.New()
	outcome, err := env.pipe.Run(context.Background(), task, nil, tracker)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)
	assert.Equal(t, domain.KindPeriodNotFound, domain.KindOf(err))
	assert.Equal(t, 2, outcome.TotalRows)
	assert.Equal(t, 2, outcome.SkippedCount)
	assert.Zero(t, outcome.SuccessCount)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, domain.KindPeriodNotFound, outcome.Errors[0].Kind)
	assert.Empty(t, env.items(t, "emp-zhang"))
	assert.Equal(t, domain.PhaseError, tracker.Snapshot().Phase)
}

func TestRun_InvalidRows(t *testing.T) {
	rows := func() []domain.ParsedRow {
		return sheet([]string{"姓名", "基本工资"},
			[]string{"张三", "8000"},
			[]string{"李四", "abc"},
		)
	}

	t.Run("abort writes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows()), nil, nil)
		require.NoError(t, err)

		assert.Zero(t, outcome.SuccessCount)
		assert.Equal(t, 1, outcome.FailedCount)
		assert.Equal(t, 1, outcome.SkippedCount)
		assert.Equal(t, domain.JobStatusFailed, outcome.Status())
		require.Len(t, outcome.Errors, 1)
		assert.Equal(t, 3, outcome.Errors[0].Row)
		assert.Equal(t, domain.KindInvalidNumericValue, outcome.Errors[0].Kind)
		assert.Empty(t, env.records(t))
	})

	t.Run("skip invalid imports the rest", func(t *testing.T) {
		env := newTestEnv(t)
		task := newTask(domain.GroupEarnings, rows())
		task.SkipInvalid = true
		outcome, err := env.pipe.Run(context.Background(), task, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, outcome.SuccessCount)
		assert.Zero(t, outcome.FailedCount)
		assert.Equal(t, 1, outcome.SkippedCount)
		assert.Equal(t, domain.JobStatusCompletedWithErrors, outcome.Status())
		assert.Equal(t, map[string]string{"comp-basic": "8000"}, env.items(t, "emp-zhang"))
		assert.Nil(t, env.items(t, "emp-li"))
	})
}

func TestRun_UnresolvedEmployees(t *testing.T) {
	env := newTestEnv(t)
	rows := sheet([]string{"姓名", "身份证号", "基本工资"},
		[]string{"张三", "110101199001011234", "8000"},
		[]string{"赵六", "", "5000"},
		[]string{"张三", "110101199001019999", "9000"},
	)

	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 2, outcome.FailedCount)
	require.Len(t, outcome.Errors, 2)
	assert.Equal(t, 3, outcome.Errors[0].Row)
	assert.Equal(t, domain.KindUnresolvedEntity, outcome.Errors[0].Kind)
	assert.Contains(t, outcome.Errors[0].Message, "赵六")
	assert.Equal(t, 4, outcome.Errors[1].Row)
	assert.Equal(t, domain.FieldIDNumber, outcome.Errors[1].Field)
	assert.Equal(t, map[string]string{"comp-basic": "8000"}, env.items(t, "emp-zhang"))
}

// flakyStore fails the n-th item batch.
type flakyStore struct {
	*repository.MemoryStore
	failOn int
	calls  int
	onCall func(n int)
}

func (s *flakyStore) UpsertItems(ctx context.Context, items []domain.PayrollItem) error {
	s.calls++
	if s.onCall != nil {
		s.onCall(s.calls)
	}
	if s.calls == s.failOn {
		return errors.New("deadlock detected")
	}
	return s.MemoryStore.UpsertItems(ctx, items)
}

var oneItemRows = [][]string{
	{"张三", "8000"},
	{"李四", "6000"},
	{"王五", "5000"},
}

func TestRun_BatchFailureIsolated(t *testing.T) {
	env := newTestEnv(t)
	store := &flakyStore{MemoryStore: env.store, failOn: 2}
	pipe := env.withStore(store, 1)

	rows := sheet([]string{"姓名", "基本工资"}, oneItemRows...)
	outcome, err := pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailedCount)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 3, outcome.Errors[0].Row)
	assert.Equal(t, domain.KindBatchWriteFailure, outcome.Errors[0].Kind)
	assert.Contains(t, outcome.Errors[0].Message, "deadlock detected")

	assert.Equal(t, map[string]string{"comp-basic": "8000"}, env.items(t, "emp-zhang"))
	assert.Empty(t, env.items(t, "emp-li"))
	assert.Equal(t, map[string]string{"comp-basic": "5000"}, env.items(t, "emp-wang"))
	assert.Equal(t, "5000", env.records(t)["E003"].GrossPay.String())
}

func TestRun_CancelledBetweenBatches(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &flakyStore{MemoryStore: env.store, onCall: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	pipe := env.withStore(store, 1)

	tracker := progress.New()
	rows := sheet([]string{"姓名", "基本工资"}, oneItemRows...)
	outcome, err := pipe.Run(ctx, newTask(domain.GroupEarnings, rows), nil, tracker)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 2, outcome.SkippedCount)
	assert.Contains(t, kinds(outcome.Errors), domain.KindCancelled)
	assert.Equal(t, map[string]string{"comp-basic": "8000"}, env.items(t, "emp-zhang"), "committed batches stay committed")
	assert.Empty(t, env.items(t, "emp-li"))

	snap := tracker.Snapshot()
	assert.True(t, snap.Cancelled)
	assert.True(t, snap.Phase.IsTerminal())
}

func TestRun_CancelledByTracker(t *testing.T) {
	env := newTestEnv(t)
	tracker := progress.New()
	tracker.Cancel("user request")

	rows := sheet([]string{"姓名", "基本工资"}, oneItemRows...)
	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, tracker)

	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Equal(t, 3, outcome.SkippedCount)
	assert.Empty(t, env.records(t))
}

func TestRollback(t *testing.T) {
	env := newTestEnv(t)
	rows := sheet([]string{"姓名", "基本工资"}, oneItemRows[:2]...)
	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.RollbackToken)
	require.Len(t, outcome.CreatedIDs, 2)

	_, err = env.pipe.Rollback(context.Background(), outcome, "not-the-token")
	assert.ErrorIs(t, err, domain.ErrRollbackUnavailable)
	assert.Len(t, env.records(t), 2)

	removed, err := env.pipe.Rollback(context.Background(), outcome, *outcome.RollbackToken)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Empty(t, env.records(t))
	assert.Nil(t, outcome.RollbackToken)

	_, err = env.pipe.Rollback(context.Background(), outcome, "")
	assert.ErrorIs(t, err, domain.ErrRollbackUnavailable)
}

func TestRun_LaterRowWins(t *testing.T) {
	env := newTestEnv(t)
	rows := sheet([]string{"姓名", "基本工资"},
		[]string{"张三", "8000"},
		[]string{"张三", "9000"},
		[]string{"李四", "6000"},
	)

	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.SuccessCount)
	assert.Zero(t, outcome.FailedCount)
	assert.Len(t, outcome.CreatedIDs, 2)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, domain.KindDuplicateRow, outcome.Warnings[0].Kind)
	assert.Equal(t, 2, outcome.Warnings[0].Row)
	assert.Contains(t, outcome.Warnings[0].Message, "row 3")
	assert.Equal(t, map[string]string{"comp-basic": "9000"}, env.items(t, "emp-zhang"))
	assert.Equal(t, map[string]string{"comp-basic": "6000"}, env.items(t, "emp-li"))
	assert.Len(t, env.records(t), 2)
}

func TestRun_NonFiniteAmounts(t *testing.T) {
	tests := []struct {
		name   string
		group  domain.DatasetGroup
		header []string
		value  string
	}{
		{name: "NaN earning", group: domain.GroupEarnings, header: []string{"姓名", "基本工资"}, value: "NaN"},
		{name: "infinite earning", group: domain.GroupEarnings, header: []string{"姓名", "基本工资"}, value: "-Infinity"},
		{name: "infinite base", group: domain.GroupBases, header: []string{"姓名", "养老保险基数"}, value: "inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			outcome, err := env.pipe.Run(context.Background(), newTask(tt.group, sheet(tt.header, []string{"张三", tt.value})), nil, nil)
			require.NoError(t, err)

			assert.Zero(t, outcome.SuccessCount)
			assert.Equal(t, 1, outcome.FailedCount)
			assert.Contains(t, kinds(outcome.Errors), domain.KindInvalidNumericValue)
			assert.Empty(t, env.records(t))
		})
	}

	t.Run("skip invalid keeps the other rows", func(t *testing.T) {
		env := newTestEnv(t)
		task := newTask(domain.GroupEarnings, sheet([]string{"姓名", "基本工资"},
			[]string{"张三", "NaN"},
			[]string{"李四", "6000"},
		))
		task.SkipInvalid = true
		outcome, err := env.pipe.Run(context.Background(), task, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, outcome.SuccessCount)
		assert.Nil(t, env.items(t, "emp-zhang"))
		assert.Equal(t, map[string]string{"comp-basic": "6000"}, env.items(t, "emp-li"))
	})
}

func TestRun_ExplicitMapping(t *testing.T) {
	env := newTestEnv(t)
	task := newTask(domain.GroupEarnings, sheet([]string{"员工", "应发", "备注"}, []string{"李四", "6100", "调薪"}))
	task.Mapping = map[string]string{"员工": domain.FieldEmployeeName, "应发": "component:BASIC", "备注": "remark"}

	outcome, err := env.pipe.Run(context.Background(), task, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Contains(t, kinds(outcome.Warnings), domain.KindUnmappedColumn)
	assert.Equal(t, map[string]string{"comp-basic": "6100"}, env.items(t, "emp-li"))
}

func TestRun_ExplicitMappingDuplicateTarget(t *testing.T) {
	env := newTestEnv(t)
	task := newTask(domain.GroupEarnings, sheet([]string{"员工", "A", "B"}, []string{"张三", "100", "200"}))
	task.Mapping = map[string]string{"员工": domain.FieldEmployeeName, "A": "component:BASIC", "B": "component:BASIC"}

	outcome, err := env.pipe.Run(context.Background(), task, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, map[string]string{"comp-basic": "100"}, env.items(t, "emp-zhang"))

	var dropped []domain.RecordError
	for _, w := range outcome.Warnings {
		if w.Kind == domain.KindUnmappedColumn && w.Field == "B" {
			dropped = append(dropped, w)
		}
	}
	require.Len(t, dropped, 1)
	assert.Contains(t, dropped[0].Message, `already taken by column "A"`)
}

func TestResolveMapping_FirstColumnInSheetOrderWins(t *testing.T) {
	fields := []domain.CanonicalField{{Name: "component:BASIC", DisplayName: "基本工资"}}
	explicit := map[string]string{"应发": "component:BASIC", "基本": "component:BASIC", "额外": "component:BASIC"}

	mapping, warnings := resolveMapping(explicit, []string{"基本", "应发"}, fields)

	assert.Equal(t, []string{"基本"}, keys(mapping))
	require.Len(t, warnings, 2)
	assert.Equal(t, "应发", warnings[0].Field, "sheet columns come before columns the sheet lacks")
	assert.Equal(t, "额外", warnings[1].Field)
}

func keys(m map[string]domain.CanonicalField) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRun_EmptyDataset(t *testing.T) {
	env := newTestEnv(t)
	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, nil), nil, nil)
	require.NoError(t, err)

	assert.Zero(t, outcome.TotalRows)
	assert.Equal(t, domain.JobStatusCompleted, outcome.Status())
	assert.Equal(t, []domain.ErrorKind{domain.KindEmptyDataset}, kinds(outcome.Warnings))
}

type emptyCatalog struct{}

func (emptyCatalog) Fields(ctx context.Context, group domain.DatasetGroup) []domain.CanonicalField {
	return nil
}

func TestRun_CatalogUnavailable(t *testing.T) {
	env := newTestEnv(t)
	pipe := New(env.store, emptyCatalog{}, nil, nil, 0)

	rows := sheet([]string{"姓名", "基本工资"}, oneItemRows...)
	outcome, err := pipe.Run(context.Background(), newTask(domain.GroupEarnings, rows), nil, nil)

	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Equal(t, 3, outcome.SkippedCount)
}

type fakeSource struct {
	sheets map[string][]domain.ParsedRow
	order  []string
}

func (s fakeSource) SheetNames() []string { return s.order }

func (s fakeSource) ReadSheet(name string) ([]domain.ParsedRow, error) {
	rows, ok := s.sheets[name]
	if !ok || len(rows) == 0 {
		return nil, domain.ErrNoData
	}
	return rows, nil
}

func TestRun_PicksSheetFromSource(t *testing.T) {
	env := newTestEnv(t)
	src := fakeSource{
		order: []string{"说明", "工资明细"},
		sheets: map[string][]domain.ParsedRow{
			"工资明细": sheet([]string{"姓名", "基本工资"}, oneItemRows[0]),
		},
	}

	tracker := progress.New()
	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupEarnings, nil), src, tracker)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, "工资明细", tracker.Snapshot().Current.SheetName)
}

func TestRun_ContributionBases(t *testing.T) {
	env := newTestEnv(t)
	rows := sheet([]string{"姓名", "养老保险缴费基数", "医疗保险缴费基数"},
		[]string{"张三", "6000", "5500"},
		[]string{"李四", "", ""},
	)

	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupBases, rows), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.SkippedCount)
	assert.Contains(t, kinds(outcome.Warnings), domain.KindEmptyDataset)

	recs := env.records(t)
	require.Len(t, recs, 1)
	bases := map[string]string{}
	for _, b := range recs["E001"].Bases {
		bases[b.Name] = b.Base.String()
	}
	assert.Equal(t, map[string]string{"养老保险": "6000", "医疗保险": "5500"}, bases)
}

func TestRun_JobAssignments(t *testing.T) {
	env := newTestEnv(t)
	rows := sheet([]string{"姓名", "部门", "职位", "职级", "入职日期", "员工状态"},
		[]string{"张三", "人事部", "经理", "高级", "2020-07-01", "在职"},
		[]string{"李四", "研发部", "", "", "", ""},
	)

	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupJob, rows), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailedCount)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, domain.KindUnresolvedEntity, outcome.Errors[0].Kind)
	assert.Contains(t, outcome.Errors[0].Message, "研发部")

	rec := env.records(t)["E001"]
	assert.Equal(t, "人事部", rec.Department)
	assert.Equal(t, "经理", rec.Position)
	assert.Equal(t, "高级", rec.Rank)
}

func TestRun_CategoryAssignments(t *testing.T) {
	env := newTestEnv(t)
	rows := sheet([]string{"姓名", "人员类别", "正编"},
		[]string{"张三", "聘用", ""},
		[]string{"李四", "", "√"},
		[]string{"王五", "", ""},
	)

	outcome, err := env.pipe.Run(context.Background(), newTask(domain.GroupCategory, rows), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.SkippedCount)

	recs := env.records(t)
	assert.Equal(t, "聘用", recs["E001"].Category)
	assert.Equal(t, "正编", recs["E002"].Category)
	assert.NotContains(t, recs, "E003")
}
