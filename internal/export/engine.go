package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	defaultWidth = 14
	// numberFormat is the built-in "#,##0.00" format.
	numberFormat = 4
)

// column is a resolved output column.
type column struct {
	label string
	width float64
	kind  ValueKind
	value func(Row) any
}

func fieldColumn(f FieldTemplate) column {
	path := f.Path
	return column{
		label: f.Label,
		width: f.Width,
		kind:  f.Kind,
		value: func(r Row) any { return r.Value(path) },
	}
}

func categoryColumn(name string, p *PivotTemplate) column {
	c := column{label: name, kind: KindNumber, value: func(r Row) any {
		v, ok := r.Categories[name]
		if !ok {
			return nil
		}
		return v
	}}
	if p != nil {
		c.width = p.Width
		if p.Kind != "" {
			c.kind = p.Kind
		}
	}
	return c
}

// Categories returns the distinct category names found in rows. Names listed
// in order come first in that order; the rest follow alphabetically.
func Categories(rows []Row, order []string) []string {
	present := map[string]bool{}
	for _, r := range rows {
		for name := range r.Categories {
			present[name] = true
		}
	}

	out := make([]string, 0, len(present))
	for _, name := range order {
		if present[name] {
			out = append(out, name)
			delete(present, name)
		}
	}
	rest := make([]string, 0, len(present))
	for name := range present {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// layout resolves the columns of a sheet against its rows.
func layout(s SheetTemplate, rows []Row) []column {
	var cols []column
	for _, f := range s.Fields {
		if f.usable() {
			cols = append(cols, fieldColumn(f))
		}
	}
	if s.Mode == ModePivot {
		var order []string
		if s.Pivot != nil {
			order = s.Pivot.Order
		}
		for _, name := range Categories(rows, order) {
			cols = append(cols, categoryColumn(name, s.Pivot))
		}
	}
	for _, f := range s.Summary {
		if f.usable() {
			cols = append(cols, fieldColumn(f))
		}
	}
	if s.FilterZeroColumns {
		cols = filterZeroColumns(cols, rows)
	}
	return cols
}

// filterZeroColumns drops numeric columns that hold no non-zero value.
func filterZeroColumns(cols []column, rows []Row) []column {
	out := cols[:0:0]
	for _, c := range cols {
		if c.kind != KindNumber {
			out = append(out, c)
			continue
		}
		for _, r := range rows {
			if !isZero(c.value(r)) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case decimal.Decimal:
		return x.IsZero()
	case *decimal.Decimal:
		return x == nil || x.IsZero()
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case string:
		if x == "" {
			return true
		}
		d, err := decimal.NewFromString(x)
		return err == nil && d.IsZero()
	default:
		return false
	}
}

// cellValue converts a row value into something excelize stores natively.
func cellValue(v any, kind ValueKind) any {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		if kind == KindText {
			return x.String()
		}
		return x.InexactFloat64()
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return cellValue(*x, kind)
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.Format("2006-01-02")
	case *time.Time:
		if x == nil {
			return nil
		}
		return cellValue(*x, kind)
	default:
		return x
	}
}

type styles struct {
	header int
	number int
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return styles{}, errors.Wrap(err, "header style")
	}
	number, err := f.NewStyle(&excelize.Style{NumFmt: numberFormat})
	if err != nil {
		return styles{}, errors.Wrap(err, "number style")
	}
	return styles{header: header, number: number}, nil
}

// Generate renders data into an xlsx workbook described by t.
func Generate(t Template, data Dataset) ([]byte, error) {
	if _, err := Validate(t); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	for i, s := range t.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return nil, errors.Wrapf(err, "name sheet %q", s.Name)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, errors.Wrapf(err, "create sheet %q", s.Name)
		}

		rows := data[s.Source]
		if err := writeSheet(f, s.Name, layout(s, rows), rows, st); err != nil {
			return nil, errors.Wrapf(err, "write sheet %q", s.Name)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "serialise workbook")
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, cols []column, rows []Row, st styles) error {
	if len(cols) == 0 {
		return nil
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range rows {
		values := make([]any, len(cols))
		for i, c := range cols {
			values[i] = cellValue(c.value(row), c.kind)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", st.header); err != nil {
		return err
	}

	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := c.width
		if width <= 0 {
			width = defaultWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
		if c.kind == KindNumber && len(rows) > 0 {
			if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, len(rows)+1), st.number); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
