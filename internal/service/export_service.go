package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-faster/errors"

	"payroll-import/internal/catalog"
	"payroll-import/internal/domain"
	"payroll-import/internal/export"
	"payroll-import/internal/logger"
	"payroll-import/internal/metrics"
	"payroll-import/internal/repository"
)

// DefaultExportTimeout is the timeout for rendering one export.
const DefaultExportTimeout = 5 * time.Minute

// ExportService renders stored payroll data as workbooks.
type ExportService struct {
	store   repository.Store
	catalog *catalog.Catalog
	timeout time.Duration
	now     func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(store repository.Store, cat *catalog.Catalog) *ExportService {
	return &ExportService{
		store:   store,
		catalog: cat,
		timeout: DefaultExportTimeout,
		now:     time.Now,
	}
}

// Export renders every record of the month's period for one group.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	group := string(req.Group)
	start := s.now()
	metrics.StartExport(group)
	result := "failure"
	count := 0
	defer func() {
		metrics.EndExport(group, result, time.Since(start).Seconds(), count)
	}()

	log := logger.WithRequestID(req.RequestID).With(
		slog.String("dataset_group", group),
		slog.String("month", req.Month),
	)

	period, err := s.store.FindPeriodByMonth(ctx, req.Month)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, errors.Wrap(domain.ErrPeriodNotFound, req.Month)
	}

	records, err := s.store.PeriodRecords(ctx, period.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load period records")
	}

	tmpl := export.ForGroup(req.Group, export.Options{
		Order:       s.pivotOrder(ctx, req.Group),
		IncludeZero: req.IncludeZero,
	})
	data, err := export.Generate(tmpl, export.Build(records, req.Group))
	if err != nil {
		return nil, errors.Wrap(err, "render workbook")
	}

	result = "success"
	count = len(records)
	log.InfoContext(ctx, "export rendered",
		slog.String("period_id", period.ID),
		slog.Int("records", count),
		slog.Int("bytes", len(data)),
	)

	return &ExportFile{
		Filename: s.filename(req),
		Data:     data,
		Records:  count,
	}, nil
}

// pivotOrder is the catalog order of the pivoted columns of a group.
func (s *ExportService) pivotOrder(ctx context.Context, group domain.DatasetGroup) []string {
	var order []string
	for _, f := range s.catalog.Fields(ctx, group) {
		if f.Kind == domain.KindSalaryComponent || f.Kind == domain.KindContributionBase {
			order = append(order, f.DisplayName)
		}
	}
	return order
}

func (s *ExportService) filename(req ExportRequest) string {
	label := "人员类别"
	for _, g := range catalog.Groups() {
		if g.Group == req.Group {
			label = g.DisplayName
		}
	}
	if req.Group == domain.GroupEarnings || req.Group == domain.GroupBases {
		if req.IncludeZero {
			label += "_完整字段"
		} else {
			label += "_有效字段"
		}
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", label, req.Month, s.now().Format("20060102_150405"))
}
