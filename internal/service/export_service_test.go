package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"payroll-import/internal/catalog"
	"payroll-import/internal/domain"
	"payroll-import/internal/pipeline"
	"payroll-import/internal/repository"
	"payroll-import/internal/service"
	"payroll-import/internal/workbook"
)

func seededStore(t testing.TB) *repository.MemoryStore {
	t.Helper()
	store := newStore()

	book, err := workbook.OpenBytes(earningsWorkbook(t), "earnings.xlsx")
	require.NoError(t, err)
	defer book.Close()

	p := pipeline.New(store, catalog.New(store), nil, nil, 0)
	task := &domain.ImportTask{ID: "seed", PeriodID: periodID, Group: domain.GroupEarnings}
	outcome, err := p.Run(context.Background(), task, book, nil)
	require.NoError(t, err)
	require.Equal(t, 2, outcome.SuccessCount)
	return store
}

func TestExportService_Export(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	svc := service.NewExportService(store, catalog.New(store))

	t.Run("renders the earnings workbook of a month", func(t *testing.T) {
		file, err := svc.Export(ctx, service.ExportRequest{Group: domain.GroupEarnings, Month: "2024-03"})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(file.Filename, "工资明细_有效字段_2024-03_"), file.Filename)
		assert.True(t, strings.HasSuffix(file.Filename, ".xlsx"))
		assert.Equal(t, 2, file.Records)

		f, err := excelize.OpenReader(bytes.NewReader(file.Data))
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"工资明细", "类别汇总"}, f.GetSheetList())

		rows, err := f.GetRows("工资明细")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{
			"员工编号", "员工姓名", "身份证号", "部门", "人员类别",
			"基本工资", "绩效奖金", "个人所得税",
			"应发合计", "扣款合计", "实发合计",
		}, rows[0])
		assert.Equal(t, "E001", rows[1][0])
		assert.Equal(t, "张三", rows[1][1])
	})

	t.Run("marks complete exports in the filename", func(t *testing.T) {
		file, err := svc.Export(ctx, service.ExportRequest{Group: domain.GroupEarnings, Month: "2024-03", IncludeZero: true})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(file.Filename, "工资明细_完整字段_2024-03_"), file.Filename)
	})

	t.Run("static groups have no field suffix", func(t *testing.T) {
		file, err := svc.Export(ctx, service.ExportRequest{Group: domain.GroupJob, Month: "2024-03"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(file.Filename, "职务信息_2024-03_"), file.Filename)

		book, err := workbook.OpenBytes(file.Data, file.Filename)
		require.NoError(t, err)
		defer book.Close()
		assert.Equal(t, []string{"职务信息"}, book.SheetNames())
	})

	t.Run("returns ErrPeriodNotFound for an unknown month", func(t *testing.T) {
		_, err := svc.Export(ctx, service.ExportRequest{Group: domain.GroupEarnings, Month: "2031-01"})
		assert.ErrorIs(t, err, domain.ErrPeriodNotFound)
	})
}
