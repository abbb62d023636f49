package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"payroll-import/internal/catalog"
	"payroll-import/internal/domain"
	"payroll-import/internal/logger"
	"payroll-import/internal/matcher"
	"payroll-import/internal/metrics"
	"payroll-import/internal/pipeline"
	"payroll-import/internal/progress"
	"payroll-import/internal/repository"
	"payroll-import/internal/validator"
	"payroll-import/internal/workbook"
)

const (
	// DefaultImportTimeout is the timeout for import processing
	DefaultImportTimeout = 30 * time.Minute

	// DefaultMaxUploadBytes caps uploaded workbooks.
	DefaultMaxUploadBytes = 50 << 20

	// QueueSendTimeout is the timeout for sending tasks to the queue
	QueueSendTimeout = 5 * time.Second

	// finalizeTimeout bounds the job update written after a run.
	finalizeTimeout = 10 * time.Second

	// sniffLen is how much of an upload is handed to MIME detection.
	sniffLen = 3072
)

// ImportConfig tunes the import service.
type ImportConfig struct {
	Workers        int
	BatchSize      int
	MaxUploadBytes int64
	Timeout        time.Duration
	TrackerLimit   int
}

// ImportService runs import tasks on a worker pool. Tasks on the same period
// run one at a time.
type ImportService struct {
	jobRepo  repository.ImportJobRepository
	catalog  *catalog.Catalog
	matcher  *matcher.Matcher
	pipeline *pipeline.Pipeline
	trackers *progress.Registry

	maxUpload int64
	timeout   time.Duration

	periodMu    sync.Mutex
	periodLocks map[string]*sync.Mutex

	jobQueue chan importTask
	stopChan chan struct{}
	wg       sync.WaitGroup
	closed   bool
	mu       sync.RWMutex
}

type importTask struct {
	job       *domain.ImportJob
	task      domain.ImportTask
	book      *workbook.Book
	tracker   *progress.Tracker
	requestID string
}

// NewImportService creates a new ImportService with worker pool.
func NewImportService(
	store repository.Store,
	jobRepo repository.ImportJobRepository,
	cat *catalog.Catalog,
	m *matcher.Matcher,
	v *validator.Validator,
	cfg ImportConfig,
) *ImportService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	if m == nil {
		m = matcher.New(nil, 0)
	}
	if v == nil {
		v = validator.NewValidator()
	}

	s := &ImportService{
		jobRepo:     jobRepo,
		catalog:     cat,
		matcher:     m,
		pipeline:    pipeline.New(store, cat, m, v, cfg.BatchSize),
		trackers:    progress.NewRegistry(cfg.TrackerLimit),
		maxUpload:   cfg.MaxUploadBytes,
		timeout:     cfg.Timeout,
		periodLocks: map[string]*sync.Mutex{},
		jobQueue:    make(chan importTask, cfg.Workers*2),
		stopChan:    make(chan struct{}),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	return s
}

func (s *ImportService) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.jobQueue:
			s.processImport(task)
		case <-s.stopChan:
			return
		}
	}
}

// Close stops the workers. Queued tasks that did not start stay pending.
func (s *ImportService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
}

func (s *ImportService) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// periodLock returns the mutex serialising writes to one period.
func (s *ImportService) periodLock(periodID string) *sync.Mutex {
	s.periodMu.Lock()
	defer s.periodMu.Unlock()
	l, ok := s.periodLocks[periodID]
	if !ok {
		l = &sync.Mutex{}
		s.periodLocks[periodID] = l
	}
	return l
}

// readUpload buffers an upload and checks it before anything is recorded.
func (s *ImportService) readUpload(filename string, r io.Reader) (*workbook.Book, int, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxUpload+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read file content: %w", err)
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if err := workbook.ValidateFile(filename, int64(len(data)), head, s.maxUpload); err != nil {
		return nil, 0, err
	}
	book, err := workbook.Open(bytes.NewReader(data), filename)
	if err != nil {
		return nil, 0, err
	}
	return book, len(data), nil
}

// StartImport creates an import job and queues it for processing.
func (s *ImportService) StartImport(ctx context.Context, req ImportRequest) (*domain.ImportJob, error) {
	log := logger.WithRequestID(req.RequestID)
	log.InfoContext(ctx, "starting import",
		slog.String("dataset_group", string(req.Group)),
		slog.String("period_id", req.PeriodID),
	)

	if s.isClosed() {
		return nil, ErrServiceClosed
	}

	if req.IdempotencyToken == "" {
		req.IdempotencyToken = uuid.New().String()
	}
	existingJob, err := s.jobRepo.GetImportJobByIdempotencyToken(ctx, req.IdempotencyToken)
	if err != nil {
		return nil, fmt.Errorf("check idempotency token: %w", err)
	}
	if existingJob != nil {
		log.InfoContext(ctx, "returning existing job for idempotency token", slog.String("job_id", existingJob.ID))
		return existingJob, nil
	}

	book, size, err := s.readUpload(req.Filename, req.Reader)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeUpsert
	}
	now := time.Now()
	job := &domain.ImportJob{
		ID:               uuid.New().String(),
		PeriodID:         req.PeriodID,
		Group:            req.Group,
		Mode:             mode,
		Status:           domain.JobStatusPending,
		IdempotencyToken: req.IdempotencyToken,
		Metadata: map[string]interface{}{
			"filename":     req.Filename,
			"size_bytes":   size,
			"skip_invalid": req.SkipInvalid,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.SheetName != "" {
		job.Metadata["sheet_hint"] = req.SheetName
	}

	id := job.ID
	if err := s.jobRepo.CreateImportJob(ctx, job); err != nil {
		book.Close()
		return nil, fmt.Errorf("create import job: %w", err)
	}
	if job.ID != id {
		// Lost an idempotency race; job now holds the winner.
		book.Close()
		return job, nil
	}

	task := importTask{
		job: job,
		task: domain.ImportTask{
			ID:          job.ID,
			PeriodID:    job.PeriodID,
			Group:       job.Group,
			Mode:        job.Mode,
			SkipInvalid: req.SkipInvalid,
			SheetName:   req.SheetName,
			Mapping:     req.Mapping,
		},
		book:      book,
		tracker:   s.trackers.Start(job.ID),
		requestID: req.RequestID,
	}
	response := *job
	response.Metadata = make(map[string]interface{}, len(job.Metadata))
	for k, v := range job.Metadata {
		response.Metadata[k] = v
	}

	select {
	case s.jobQueue <- task:
		log.InfoContext(ctx, "job queued for processing", slog.String("job_id", job.ID))
	case <-time.After(QueueSendTimeout):
		log.WarnContext(ctx, "queue full, job will be processed when capacity is available", slog.String("job_id", job.ID))
		go func() {
			select {
			case s.jobQueue <- task:
			case <-s.stopChan:
				book.Close()
			}
		}()
	case <-s.stopChan:
		book.Close()
		return nil, ErrServiceClosed
	}

	return &response, nil
}

func (s *ImportService) processImport(t importTask) {
	defer t.book.Close()

	job := t.job
	log := logger.WithTaskID(job.ID, string(job.Group)).With(slog.String("request_id", t.requestID))

	lock := s.periodLock(job.PeriodID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if t.tracker.Cancelled() {
		log.InfoContext(ctx, "job cancelled before it started")
		s.finish(job, &domain.ImportOutcome{}, domain.ErrCancelled, log)
		return
	}

	job.Status = domain.JobStatusProcessing
	job.UpdatedAt = time.Now()
	if err := s.jobRepo.UpdateImportJob(ctx, job); err != nil {
		log.ErrorContext(ctx, "failed to update import job status to processing", slog.String("error", err.Error()))
	}

	task := t.task
	outcome, err := s.runPipeline(ctx, &task, t, log)
	if sheet := t.tracker.Snapshot().Current.SheetName; sheet != "" {
		job.Metadata["sheet"] = sheet
	}
	s.finish(job, outcome, err, log)
}

// runPipeline runs one task. A panic inside the pipeline fails the job instead
// of the worker.
func (s *ImportService) runPipeline(ctx context.Context, task *domain.ImportTask, t importTask, log *slog.Logger) (outcome *domain.ImportOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "import pipeline panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			outcome = &domain.ImportOutcome{TotalRows: t.tracker.Snapshot().Global.TotalRecords}
			err = errors.New("import aborted by an internal error")
			t.tracker.Fail(err.Error())
		}
	}()
	return s.pipeline.Run(ctx, task, t.book, t.tracker)
}

// finish records the final state of a job.
func (s *ImportService) finish(job *domain.ImportJob, outcome *domain.ImportOutcome, runErr error, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	now := time.Now()
	job.Outcome = outcome
	job.TotalRecords = outcome.TotalRows
	job.ProcessedRecords = outcome.SuccessCount + outcome.FailedCount
	job.SuccessCount = outcome.SuccessCount
	job.FailureCount = outcome.FailedCount
	job.UpdatedAt = now
	job.CompletedAt = &now

	switch {
	case runErr == nil:
		job.Status = outcome.Status()
	case errors.Is(runErr, domain.ErrCancelled):
		job.Status = domain.JobStatusCancelled
	default:
		job.Status = domain.JobStatusFailed
		msg := runErr.Error()
		job.ErrorMessage = &msg
	}

	if err := s.jobRepo.UpdateImportJob(ctx, job); err != nil {
		log.ErrorContext(ctx, "failed to update import job", slog.String("error", err.Error()))
	}

	log.InfoContext(ctx, "import job finished",
		slog.String("status", string(job.Status)),
		slog.Int("total", job.TotalRecords),
		slog.Int("success", job.SuccessCount),
		slog.Int("failed", job.FailureCount),
	)
}

// GetImportJob retrieves an import job by ID, domain.ErrJobNotFound when it
// does not exist.
func (s *ImportService) GetImportJob(ctx context.Context, id string) (*domain.ImportJob, error) {
	job, err := s.jobRepo.GetImportJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

// GetProgress returns the live progress of a job. Jobs whose tracker is gone
// get a summary built from the stored job.
func (s *ImportService) GetProgress(ctx context.Context, id string) (*domain.ImportProgress, error) {
	if tracker, ok := s.trackers.Get(id); ok {
		snap := tracker.Snapshot()
		return &snap, nil
	}

	job, err := s.GetImportJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return progressFromJob(job), nil
}

// WatchProgress streams progress snapshots of a job. The channel is closed
// after a terminal snapshot or when ctx is done. Jobs whose tracker is gone
// get a single summary snapshot.
func (s *ImportService) WatchProgress(ctx context.Context, id string) (<-chan domain.ImportProgress, error) {
	tracker, ok := s.trackers.Get(id)
	if !ok {
		job, err := s.GetImportJob(ctx, id)
		if err != nil {
			return nil, err
		}
		out := make(chan domain.ImportProgress, 1)
		out <- *progressFromJob(job)
		close(out)
		return out, nil
	}

	updates, stop := tracker.Subscribe()
	out := make(chan domain.ImportProgress)
	go func() {
		defer close(out)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
				if snap.Phase.IsTerminal() {
					return
				}
			}
		}
	}()
	return out, nil
}

func progressFromJob(job *domain.ImportJob) *domain.ImportProgress {
	p := &domain.ImportProgress{Phase: domain.PhaseParsing}
	p.Global.TotalGroups = 1
	p.Global.TotalRecords = job.TotalRecords
	p.Global.ProcessedRecords = job.ProcessedRecords
	p.Current.GroupName = string(job.Group)
	p.Current.TotalRecords = job.TotalRecords
	p.Current.ProcessedRecords = job.ProcessedRecords
	p.Current.SuccessCount = job.SuccessCount
	p.Current.ErrorCount = job.FailureCount

	switch {
	case job.Status == domain.JobStatusFailed || job.Status == domain.JobStatusCancelled:
		p.Phase = domain.PhaseError
	case job.Status.IsTerminal():
		p.Phase = domain.PhaseCompleted
		p.Global.ProcessedGroups = 1
	}
	if job.ErrorMessage != nil {
		p.Message = *job.ErrorMessage
	}
	if job.Outcome != nil {
		p.Errors = job.Outcome.Errors
		p.Warnings = job.Outcome.Warnings
	}
	return p
}

// CancelImport flags a pending or running job for cancellation. The worker
// stops at the next batch boundary and marks the job cancelled.
func (s *ImportService) CancelImport(ctx context.Context, id string) (*domain.ImportJob, error) {
	job, err := s.GetImportJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return job, ErrJobFinished
	}
	tracker, ok := s.trackers.Get(id)
	if !ok {
		return job, ErrJobFinished
	}
	tracker.Cancel("cancelled by user")
	logger.InfoContext(ctx, "import cancellation requested", slog.String("job_id", id))
	return job, nil
}

// RollbackImport deletes the entries a completed job created. The token must
// be the one in the job outcome and can be used once.
func (s *ImportService) RollbackImport(ctx context.Context, id, token string) (*domain.ImportJob, error) {
	job, err := s.GetImportJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusCompleted && job.Status != domain.JobStatusCompletedWithErrors {
		return nil, domain.ErrRollbackUnavailable
	}

	lock := s.periodLock(job.PeriodID)
	lock.Lock()
	defer lock.Unlock()

	removed, err := s.pipeline.Rollback(ctx, job.Outcome, token)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatusRolledBack
	job.UpdatedAt = time.Now()
	if job.Metadata == nil {
		job.Metadata = map[string]interface{}{}
	}
	job.Metadata["rolled_back_entries"] = removed
	if err := s.jobRepo.UpdateImportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("update rolled back job: %w", err)
	}
	return job, nil
}

// Preview matches the header of the selected sheet against the catalog.
func (s *ImportService) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	book, _, err := s.readUpload(req.Filename, req.Reader)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	names := book.SheetNames()
	sheet := workbook.SelectSheet(names, req.SheetName, catalog.SheetAliases(req.Group))
	rows, err := book.ReadSheet(sheet)
	if err != nil && !errors.Is(err, domain.ErrNoData) {
		return nil, err
	}

	fields := s.catalog.Fields(ctx, req.Group)
	if len(fields) == 0 {
		return nil, domain.ErrCatalogUnavailable
	}

	var columns []string
	if len(rows) > 0 {
		columns = rows[0].Columns()
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeManyToMany
	}
	timer := metrics.NewTimer()
	report, err := s.matcher.Match(ctx, columns, fields, mode)
	timer.ObserveDuration(metrics.MatchDuration.WithLabelValues(string(req.Group)))
	if err != nil {
		return nil, errors.Wrap(err, "match columns")
	}
	metrics.ObserveMatchReport(string(req.Group), report)

	return &Preview{
		Sheet:    sheet,
		Sheets:   names,
		Columns:  columns,
		RowCount: len(rows),
		Report:   report,
	}, nil
}

// Catalog lists the canonical fields of a group. A non-empty query keeps the
// fields whose labels fuzzily match it, best match first.
func (s *ImportService) Catalog(ctx context.Context, group domain.DatasetGroup, query string) ([]domain.CanonicalField, error) {
	fields := s.catalog.Fields(ctx, group)
	if len(fields) == 0 {
		return nil, domain.ErrCatalogUnavailable
	}
	if query == "" {
		return fields, nil
	}
	return s.catalog.Search(ctx, group, query), nil
}
