package workbook

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"

	"payroll-import/internal/domain"
)

// DefaultMaxFileSize is the upload ceiling used when none is configured.
const DefaultMaxFileSize = 50 << 20

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

var allowedMIME = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel.sheet.macroEnabled.12",
	"application/zip",
	"text/csv",
	"text/plain",
}

// ValidateFile checks an upload before it is parsed: non-empty, within size,
// a supported extension, and content that sniffs as a spreadsheet. head is
// the leading bytes of the file.
func ValidateFile(filename string, size int64, head []byte, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if size <= 0 || len(head) == 0 {
		return errors.Wrap(domain.ErrInvalidFile, "file is empty")
	}
	if size > maxSize {
		return errors.Wrap(domain.ErrInvalidFile, fmt.Sprintf("file is %d bytes, limit is %d", size, maxSize))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xls" {
		return errors.Wrap(domain.ErrInvalidFile, "legacy .xls workbooks are not supported, save as .xlsx")
	}
	if !allowedExtensions[ext] {
		return errors.Wrap(domain.ErrInvalidFile, fmt.Sprintf("unsupported extension %q", ext))
	}

	mt := mimetype.Detect(head)
	for m := mt; m != nil; m = m.Parent() {
		for _, allowed := range allowedMIME {
			if m.Is(allowed) {
				return nil
			}
		}
	}
	return errors.Wrap(domain.ErrInvalidFile, fmt.Sprintf("content type %s is not a spreadsheet", mt.String()))
}
