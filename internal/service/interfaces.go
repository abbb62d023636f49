package service

import (
	"context"
	"io"

	"github.com/go-faster/errors"

	"payroll-import/internal/domain"
)

var (
	// ErrServiceClosed is returned once Close has been called.
	ErrServiceClosed = errors.New("import service is shutting down")
	// ErrJobFinished is returned when cancelling a job that already ended.
	ErrJobFinished = errors.New("import job already finished")
)

// ImportRequest describes one uploaded workbook to import.
type ImportRequest struct {
	PeriodID         string
	Group            domain.DatasetGroup
	Mode             domain.ImportMode
	SkipInvalid      bool
	SheetName        string
	Mapping          map[string]string
	IdempotencyToken string
	Filename         string
	RequestID        string
	Reader           io.Reader
}

// PreviewRequest describes a workbook whose headers should be matched
// without importing anything.
type PreviewRequest struct {
	Group     domain.DatasetGroup
	Mode      domain.MatchMode
	SheetName string
	Filename  string
	RequestID string
	Reader    io.Reader
}

// Preview is the column matching result of one sheet.
type Preview struct {
	Sheet    string              `json:"sheet"`
	Sheets   []string            `json:"sheets"`
	Columns  []string            `json:"columns"`
	RowCount int                 `json:"row_count"`
	Report   *domain.MatchReport `json:"report"`
}

// ExportRequest selects the data of one workbook export.
type ExportRequest struct {
	Group       domain.DatasetGroup
	Month       string // YYYY-MM
	IncludeZero bool
	RequestID   string
}

// ExportFile is a rendered workbook.
type ExportFile struct {
	Filename string
	Data     []byte
	Records  int
}

// ImportServiceInterface defines the interface for import operations.
// Used for dependency injection and mocking in tests.
type ImportServiceInterface interface {
	// StartImport validates the upload, records a job and queues it.
	StartImport(ctx context.Context, req ImportRequest) (*domain.ImportJob, error)
	// GetImportJob retrieves an import job by ID.
	GetImportJob(ctx context.Context, id string) (*domain.ImportJob, error)
	// GetProgress returns the live progress of a job.
	GetProgress(ctx context.Context, id string) (*domain.ImportProgress, error)
	// WatchProgress streams progress snapshots until the job finishes.
	WatchProgress(ctx context.Context, id string) (<-chan domain.ImportProgress, error)
	// CancelImport asks a pending or running job to stop.
	CancelImport(ctx context.Context, id string) (*domain.ImportJob, error)
	// RollbackImport removes what a completed job created.
	RollbackImport(ctx context.Context, id, token string) (*domain.ImportJob, error)
	// Preview matches the headers of a workbook against the catalog.
	Preview(ctx context.Context, req PreviewRequest) (*Preview, error)
	// Catalog lists the canonical fields of a dataset group, optionally
	// filtered by a fuzzy label query.
	Catalog(ctx context.Context, group domain.DatasetGroup, query string) ([]domain.CanonicalField, error)
	// Close shuts down the import service workers.
	Close()
}

// ExportServiceInterface defines the interface for export operations.
// Used for dependency injection and mocking in tests.
type ExportServiceInterface interface {
	// Export renders the records of one period and group as a workbook.
	Export(ctx context.Context, req ExportRequest) (*ExportFile, error)
}
