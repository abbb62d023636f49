package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind tags the value held by a CellValue.
type CellKind uint8

const (
	CellBlank CellKind = iota
	CellNumber
	CellText
)

// CellValue is a spreadsheet cell reduced to Number, Text or Blank.
type CellValue struct {
	Kind CellKind
	Num  float64
	Text string
}

// Blank returns an empty cell.
func Blank() CellValue { return CellValue{Kind: CellBlank} }

// Number returns a numeric cell.
func Number(f float64) CellValue { return CellValue{Kind: CellNumber, Num: f} }

// Text returns a text cell.
func Text(s string) CellValue { return CellValue{Kind: CellText, Text: s} }

// ParseCell classifies a raw cell string. Grouping commas and a leading currency
// sign are accepted on numbers; everything else non-empty is text. Digit strings
// that look like identifiers (leading zero, more than 15 digits) stay text.
func ParseCell(raw string) CellValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Blank()
	}
	if looksLikeIdentifier(s) {
		return Text(s)
	}
	if f, ok := parseNumber(s); ok {
		return Number(f)
	}
	return Text(s)
}

func looksLikeIdentifier(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 15 || (len(s) > 1 && s[0] == '0')
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimLeft(s, "¥￥$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

// IsBlank reports whether the cell holds nothing.
func (v CellValue) IsBlank() bool {
	return v.Kind == CellBlank
}

// String renders the cell the way it would appear in a sheet.
func (v CellValue) String() string {
	switch v.Kind {
	case CellNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case CellText:
		return v.Text
	default:
		return ""
	}
}

// Float returns the numeric value of a number cell or of numeric text.
func (v CellValue) Float() (float64, bool) {
	switch v.Kind {
	case CellNumber:
		return v.Num, true
	case CellText:
		return parseNumber(strings.TrimSpace(v.Text))
	default:
		return 0, false
	}
}

// Decimal returns the cell as an exact decimal amount.
func (v CellValue) Decimal() (decimal.Decimal, bool) {
	switch v.Kind {
	case CellNumber:
		if !finite(v.Num) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v.Num), true
	case CellText:
		s := strings.ReplaceAll(strings.TrimLeft(strings.TrimSpace(v.Text), "¥￥$"), ",", "")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// Truthy reports whether a marker cell (a tick under a value column) is set.
func (v CellValue) Truthy() bool {
	switch v.Kind {
	case CellNumber:
		return v.Num != 0
	case CellText:
		switch strings.ToLower(strings.TrimSpace(v.Text)) {
		case "", "0", "否", "无", "no", "n", "false", "×", "x":
			return false
		}
		return true
	default:
		return false
	}
}

// ParsedRow is one data row of a sheet keyed by header. It is never mutated
// after construction.
type ParsedRow struct {
	RowNumber int
	columns   []string
	values    map[string]CellValue
}

// NewParsedRow builds a row from ordered headers and values. Missing values are
// blank; for repeated headers the first occurrence wins.
func NewParsedRow(rowNumber int, columns []string, values []CellValue) ParsedRow {
	row := ParsedRow{
		RowNumber: rowNumber,
		columns:   make([]string, 0, len(columns)),
		values:    make(map[string]CellValue, len(columns)),
	}
	for i, col := range columns {
		if _, dup := row.values[col]; dup {
			continue
		}
		v := Blank()
		if i < len(values) {
			v = values[i]
		}
		row.columns = append(row.columns, col)
		row.values[col] = v
	}
	return row
}

// RowFromMap builds a row from a map, ordering columns as given.
func RowFromMap(rowNumber int, columns []string, values map[string]CellValue) ParsedRow {
	ordered := make([]CellValue, len(columns))
	for i, col := range columns {
		if v, ok := values[col]; ok {
			ordered[i] = v
		}
	}
	return NewParsedRow(rowNumber, columns, ordered)
}

// Get returns the value under a header.
func (r ParsedRow) Get(column string) (CellValue, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Columns returns a copy of the ordered headers.
func (r ParsedRow) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// IsEmpty reports whether every cell of the row is blank.
func (r ParsedRow) IsEmpty() bool {
	for _, v := range r.values {
		if !v.IsBlank() {
			return false
		}
	}
	return true
}
