package workbook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"payroll-import/internal/domain"
)

func buildXLSX(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestOpen_XLSX(t *testing.T) {
	data := buildXLSX(t, map[string][][]interface{}{
		"说明": {{"本表为示例"}},
		"工资明细": {
			{},
			{"姓名", "基本工资", "", "备注"},
			{"张三", 5000.5, "ignored", "0012"},
			{},
			{"李四", 6000},
		},
	}, "说明", "工资明细")

	book, err := OpenBytes(data, "payroll.xlsx")
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"说明", "工资明细"}, book.SheetNames())

	rows, err := book.ReadSheet("工资明细")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 3, first.RowNumber)
	assert.Equal(t, []string{"姓名", "基本工资", "备注"}, first.Columns())
	name, _ := first.Get("姓名")
	assert.Equal(t, "张三", name.Text)
	amount, _ := first.Get("基本工资")
	assert.Equal(t, domain.CellNumber, amount.Kind)
	assert.Equal(t, 5000.5, amount.Num)
	note, _ := first.Get("备注")
	assert.Equal(t, domain.CellText, note.Kind, "leading zero codes stay text")

	second := rows[1]
	assert.Equal(t, 5, second.RowNumber)
	blank, ok := second.Get("备注")
	assert.True(t, ok)
	assert.True(t, blank.IsBlank())
}

func TestOpen_CSV(t *testing.T) {
	data := "\ufeff姓名,基本工资\n张三,\"1,200.00\"\n\n李四,800\n"

	book, err := Open(strings.NewReader(data), "earnings.CSV")
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Sheet1"}, book.SheetNames())
	rows, err := book.ReadSheet("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	v, ok := rows[0].Get("姓名")
	require.True(t, ok, "byte order mark is stripped from the header")
	assert.Equal(t, "张三", v.Text)
	amount, _ := rows[0].Get("基本工资")
	assert.Equal(t, 1200.0, amount.Num)
	assert.Equal(t, 4, rows[1].RowNumber)
}

func TestReadSheet_Empty(t *testing.T) {
	book, err := Open(strings.NewReader("\n\n"), "empty.csv")
	require.NoError(t, err)

	_, err = book.ReadSheet("Sheet1")
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestOpen_Corrupt(t *testing.T) {
	_, err := OpenBytes([]byte("definitely not a zip"), "broken.xlsx")
	assert.ErrorIs(t, err, domain.ErrInvalidFile)
}

func TestValidateFile(t *testing.T) {
	xlsx := buildXLSX(t, map[string][][]interface{}{"S": {{"a"}}}, "S")
	csvHead := []byte("姓名,基本工资\n张三,100\n")

	tests := []struct {
		name    string
		file    string
		size    int64
		head    []byte
		max     int64
		wantErr string
	}{
		{"xlsx", "a.xlsx", int64(len(xlsx)), xlsx, 0, ""},
		{"csv", "a.csv", int64(len(csvHead)), csvHead, 0, ""},
		{"empty", "a.xlsx", 0, nil, 0, "empty"},
		{"too large", "a.xlsx", 60 << 20, xlsx, 0, "limit"},
		{"custom limit", "a.csv", int64(len(csvHead)), csvHead, 4, "limit"},
		{"legacy xls", "a.xls", 10, []byte{0xD0, 0xCF, 0x11, 0xE0}, 0, ".xls"},
		{"bad extension", "a.pdf", 10, []byte("%PDF-1.4"), 0, "unsupported extension"},
		{"disguised binary", "a.xlsx", 10, []byte("%PDF-1.4 binary\x00\x01\x02"), 0, "not a spreadsheet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, tt.size, tt.head, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidFile)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSelectSheet(t *testing.T) {
	aliases := []string{"工资明细", "工资表", "payroll"}

	tests := []struct {
		name  string
		names []string
		hint  string
		want  string
	}{
		{"hint wins", []string{"工资明细", "Other"}, "other", "Other"},
		{"exact alias", []string{"说明", "工资表", "工资明细"}, "", "工资明细"},
		{"fuzzy alias", []string{"说明", "2024年3月工资明细表"}, "", "2024年3月工资明细表"},
		{"case folded", []string{"Notes", "March PAYROLL"}, "", "March PAYROLL"},
		{"fallback first", []string{"A", "B"}, "", "A"},
		{"none", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectSheet(tt.names, tt.hint, aliases))
		})
	}
}

func TestToRows_DuplicateHeaderFirstWins(t *testing.T) {
	rows, err := toRows([][]string{{"姓名", "姓名"}, {"张三", "李四"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, _ := rows[0].Get("姓名")
	assert.Equal(t, "张三", v.Text)
}
