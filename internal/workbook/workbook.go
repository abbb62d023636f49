// Package workbook reads uploaded spreadsheets into parsed rows.
package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"payroll-import/internal/domain"
)

// csvSheetName is the single sheet name reported for CSV uploads.
const csvSheetName = "Sheet1"

// Book is an opened workbook. It is not safe for concurrent use.
type Book struct {
	name string
	xl   *excelize.File
	csv  [][]string
}

// Open reads a workbook from r. The filename extension selects the format.
func Open(r io.Reader, filename string) (*Book, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".csv" {
		records, err := readCSV(r)
		if err != nil {
			return nil, errors.Wrap(domain.ErrInvalidFile, err.Error())
		}
		return &Book{name: filename, csv: records}, nil
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidFile, err.Error())
	}
	return &Book{name: filename, xl: f}, nil
}

// OpenBytes is Open over an in-memory upload.
func OpenBytes(data []byte, filename string) (*Book, error) {
	return Open(bytes.NewReader(data), filename)
}

// Name returns the file name the book was opened with.
func (b *Book) Name() string {
	return b.name
}

// SheetNames lists the sheets in workbook order.
func (b *Book) SheetNames() []string {
	if b.xl == nil {
		return []string{csvSheetName}
	}
	return b.xl.GetSheetList()
}

// ReadSheet returns the data rows of a sheet. The first non-empty row is the
// header; blank rows are skipped. Row numbers are 1-based sheet rows.
func (b *Book) ReadSheet(sheet string) ([]domain.ParsedRow, error) {
	var raw [][]string
	if b.xl == nil {
		raw = b.csv
	} else {
		rows, err := b.xl.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		raw = rows
	}
	return toRows(raw)
}

// Close releases the workbook.
func (b *Book) Close() error {
	if b.xl == nil {
		return nil
	}
	return b.xl.Close()
}

func toRows(raw [][]string) ([]domain.ParsedRow, error) {
	headerAt := -1
	for i, r := range raw {
		if !blankRecord(r) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, domain.ErrNoData
	}

	header := make([]string, len(raw[headerAt]))
	for i, h := range raw[headerAt] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []domain.ParsedRow
	for i := headerAt + 1; i < len(raw); i++ {
		if blankRecord(raw[i]) {
			continue
		}
		var cols []string
		var vals []domain.CellValue
		for j, h := range header {
			if h == "" {
				continue
			}
			cols = append(cols, h)
			if j < len(raw[i]) {
				vals = append(vals, domain.ParseCell(raw[i][j]))
			} else {
				vals = append(vals, domain.Blank())
			}
		}
		rows = append(rows, domain.NewParsedRow(i+1, cols, vals))
	}
	return rows, nil
}

func blankRecord(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// readCSV keeps records at their line index so row numbers match the file;
// lines the reader skips become empty records.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		for len(records) < line-1 {
			records = append(records, nil)
		}
		records = append(records, rec)
	}
}
