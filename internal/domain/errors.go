package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrorKind is the taxonomy of problems an import can surface.
type ErrorKind string

const (
	KindMissingRequiredField ErrorKind = "missing_required_field"
	KindUnresolvedEntity     ErrorKind = "unresolved_entity"
	KindInvalidNumericValue  ErrorKind = "invalid_numeric_value"
	KindInvalidValue         ErrorKind = "invalid_value"
	KindBatchWriteFailure    ErrorKind = "batch_write_failure"
	KindPeriodNotFound       ErrorKind = "period_not_found"
	KindDuplicateRow         ErrorKind = "duplicate_row"
	KindUnmappedColumn       ErrorKind = "unmapped_column"
	KindLowConfidenceMatch   ErrorKind = "low_confidence_match"
	KindEmptyDataset         ErrorKind = "empty_dataset"
	KindCancelled            ErrorKind = "cancelled"
	KindFatal                ErrorKind = "fatal"
)

// TaskFatal reports whether the kind aborts the whole task.
func (k ErrorKind) TaskFatal() bool {
	return k == KindPeriodNotFound || k == KindFatal
}

var (
	ErrPeriodNotFound      = errors.New("payroll period not found")
	ErrCatalogUnavailable  = errors.New("target field catalog unavailable")
	ErrInvalidFile         = errors.New("invalid workbook file")
	ErrNoData              = errors.New("workbook contains no data rows")
	ErrCancelled           = errors.New("import cancelled")
	ErrRollbackUnavailable = errors.New("rollback not available for this import")
	ErrJobNotFound         = errors.New("import job not found")
)

// ImportError is a typed error carrying its taxonomy kind and row scope.
type ImportError struct {
	Kind  ErrorKind
	Row   int
	Field string
	Err   error
}

// NewImportError wraps err with a kind and row scope.
func NewImportError(kind ErrorKind, row int, field string, err error) *ImportError {
	return &ImportError{Kind: kind, Row: row, Field: field, Err: err}
}

func (e *ImportError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Record converts the error into an outcome entry.
func (e *ImportError) Record() RecordError {
	return RecordError{Row: e.Row, Field: e.Field, Kind: e.Kind, Message: e.Err.Error()}
}

// KindOf extracts the taxonomy kind of err, KindFatal when err is untyped.
func KindOf(err error) ErrorKind {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	if errors.Is(err, ErrPeriodNotFound) {
		return KindPeriodNotFound
	}
	if errors.Is(err, ErrCancelled) {
		return KindCancelled
	}
	return KindFatal
}
