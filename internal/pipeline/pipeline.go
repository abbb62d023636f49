// Package pipeline imports one dataset group of a payroll workbook into the
// store.
//
// A run moves through parsing, validating and importing, and ends completed or
// in error. Reference lookups are batched per entity type and run
// concurrently. Writes are sequential and batched; a failed batch fails its
// rows and the run carries on, so rows committed by earlier batches stay
// committed. Cancellation is checked between batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"payroll-import/internal/catalog"
	"payroll-import/internal/domain"
	"payroll-import/internal/logger"
	"payroll-import/internal/matcher"
	"payroll-import/internal/metrics"
	"payroll-import/internal/progress"
	"payroll-import/internal/repository"
	"payroll-import/internal/validator"
	"payroll-import/internal/workbook"
)

// FieldSource supplies the canonical fields of a group.
type FieldSource interface {
	Fields(ctx context.Context, group domain.DatasetGroup) []domain.CanonicalField
}

// ColumnMatcher maps source columns onto canonical fields.
type ColumnMatcher interface {
	Match(ctx context.Context, columns []string, fields []domain.CanonicalField, mode domain.MatchMode) (*domain.MatchReport, error)
}

// RowValidator checks rows before anything is written.
type RowValidator interface {
	ValidateRows(rows []domain.ParsedRow, group domain.DatasetGroup, fields []domain.CanonicalField) validator.Report
}

// Source is an opened workbook.
type Source interface {
	SheetNames() []string
	ReadSheet(name string) ([]domain.ParsedRow, error)
}

// Pipeline runs import tasks. It holds no per-task state and may run several
// tasks at once, as long as they target different periods.
type Pipeline struct {
	store     repository.Store
	fields    FieldSource
	matcher   ColumnMatcher
	validator RowValidator
	batchSize int
	now       func() time.Time
	newID     func() string
}

// New creates a Pipeline. A nil matcher or validator gets the default one and
// a non-positive batch size becomes DefaultBatchSize.
func New(store repository.Store, fields FieldSource, m ColumnMatcher, v RowValidator, batchSize int) *Pipeline {
	if m == nil {
		m = matcher.New(nil, 0)
	}
	if v == nil {
		v = validator.NewValidator()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:     store,
		fields:    fields,
		matcher:   m,
		validator: v,
		batchSize: batchSize,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// run is the state of one task.
type run struct {
	task      *domain.ImportTask
	tracker   *progress.Tracker
	log       *slog.Logger
	outcome   domain.ImportOutcome
	rows      []domain.ParsedRow
	fields    []domain.CanonicalField
	skip      map[int]bool
	failed    map[int]bool
	succeeded map[int]bool
}

func (r *run) addError(e domain.RecordError) {
	r.outcome.Errors = append(r.outcome.Errors, e)
	r.tracker.AddError(e)
}

func (r *run) addWarning(w domain.RecordError) {
	r.outcome.Warnings = append(r.outcome.Warnings, w)
	r.tracker.AddWarning(w)
}

// fail records a row-scoped error and marks its row failed.
func (r *run) fail(e domain.RecordError) {
	r.addError(e)
	r.failed[e.Row] = true
}

// checkCancelled stops the run when the caller cancelled the task or its
// context.
func (r *run) checkCancelled(ctx context.Context) error {
	if r.tracker.Cancelled() {
		return domain.ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(domain.ErrCancelled, err.Error())
	}
	return nil
}

// Run imports the rows of task. When src is set the sheet is picked from it,
// otherwise task.Rows is used. tracker may be nil.
//
// The outcome is always returned. The error is non-nil when the task stopped
// early: a missing period, an unavailable catalog or reference store, a
// failed replace, or cancellation (domain.ErrCancelled).
func (p *Pipeline) Run(ctx context.Context, task *domain.ImportTask, src Source, tracker *progress.Tracker) (*domain.ImportOutcome, error) {
	if task.Mode == "" {
		task.Mode = domain.ModeUpsert
	}
	if task.StartedAt.IsZero() {
		task.StartedAt = p.now()
	}
	group := string(task.Group)

	r := &run{
		task:      task,
		tracker:   tracker,
		log:       logger.WithTaskID(task.ID, group),
		skip:      map[int]bool{},
		failed:    map[int]bool{},
		succeeded: map[int]bool{},
	}

	metrics.StartJob("import", group)
	defer metrics.EndJob("import", group)

	r.log.InfoContext(ctx, "import started",
		slog.String("period_id", task.PeriodID),
		slog.String("mode", string(task.Mode)),
		slog.Bool("skip_invalid", task.SkipInvalid),
	)

	err := p.execute(ctx, r, src)

	o := r.outcome
	o.TotalRows = len(r.rows)
	o.SuccessCount = len(r.succeeded)
	o.FailedCount = len(r.failed)
	o.SkippedCount = o.TotalRows - o.SuccessCount - o.FailedCount

	switch {
	case err == nil:
		tracker.Complete(o)
	case errors.Is(err, domain.ErrCancelled):
		tracker.Cancel("")
		tracker.Complete(o)
	default:
		tracker.Fail(err.Error())
	}

	status := o.Status()
	if err != nil && !errors.Is(err, domain.ErrCancelled) {
		status = domain.JobStatusFailed
	}
	elapsed := time.Since(task.StartedAt)
	metrics.ObserveJobCompletion("import", group, string(status), elapsed.Seconds(), o.SuccessCount, o.FailedCount)

	attrs := []any{
		slog.String("status", string(status)),
		slog.Int("total", o.TotalRows),
		slog.Int("success", o.SuccessCount),
		slog.Int("failed", o.FailedCount),
		slog.Int("skipped", o.SkippedCount),
		slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
	}
	if err != nil {
		r.log.WarnContext(ctx, "import stopped", append(attrs, slog.String("error", err.Error()))...)
	} else {
		r.log.InfoContext(ctx, "import completed", attrs...)
	}
	return &o, err
}

func (p *Pipeline) execute(ctx context.Context, r *run, src Source) error {
	task := r.task

	// Parsing
	rows, sheet, err := readRows(task, src)
	if err != nil {
		return p.fatal(r, domain.KindFatal, err)
	}
	r.rows = rows
	r.tracker.Initialize(len(rows), []domain.DatasetGroup{task.Group})
	total := len(rows)
	r.tracker.Update(progress.Update{SheetName: &sheet, CurrentTotal: &total})

	period, err := p.store.FindPeriod(ctx, task.PeriodID)
	if err != nil {
		return p.fatal(r, domain.KindFatal, errors.Wrap(err, "find period"))
	}
	if period == nil {
		return p.fatal(r, domain.KindPeriodNotFound, errors.Wrap(domain.ErrPeriodNotFound, task.PeriodID))
	}

	if len(rows) == 0 {
		r.addWarning(domain.RecordError{Kind: domain.KindEmptyDataset, Message: fmt.Sprintf("sheet %q has no data rows", sheet)})
		return nil
	}

	fields := p.fields.Fields(ctx, task.Group)
	if len(fields) == 0 {
		return p.fatal(r, domain.KindFatal, domain.ErrCatalogUnavailable)
	}
	r.fields = fields

	var mapping map[string]domain.CanonicalField
	var warnings []domain.RecordError
	if len(task.Mapping) > 0 {
		mapping, warnings = resolveMapping(task.Mapping, columnsOf(rows), fields)
	} else {
		var report *domain.MatchReport
		mapping, report, warnings, err = p.autoMapping(ctx, columnsOf(rows), fields)
		if err != nil {
			return p.fatal(r, domain.KindFatal, errors.Wrap(err, "match columns"))
		}
		metrics.ObserveMatchReport(string(task.Group), report)
	}
	for _, w := range warnings {
		r.addWarning(w)
	}
	r.rows = project(rows, mapping)

	// Validating
	if err := r.checkCancelled(ctx); err != nil {
		return err
	}
	r.tracker.SetPhase(domain.PhaseValidating)
	report := p.validator.ValidateRows(r.rows, task.Group, fields)
	for _, w := range report.Warnings {
		r.addWarning(w)
	}
	if !report.Valid {
		if !task.SkipInvalid {
			for _, e := range report.Errors {
				r.fail(e)
			}
			r.tracker.SetMessage(fmt.Sprintf("validation failed for %d rows, nothing was written", len(r.failed)))
			return nil
		}
		for _, e := range report.Errors {
			r.addError(e)
			r.skip[e.Row] = true
		}
	}

	// Importing
	if err := r.checkCancelled(ctx); err != nil {
		return err
	}
	r.tracker.SetPhase(domain.PhaseImporting)

	switch task.Group {
	case domain.GroupEarnings:
		return importGroup(ctx, p, r, earningsDescriptor)
	case domain.GroupBases:
		return importGroup(ctx, p, r, basesDescriptor)
	case domain.GroupJob:
		return importGroup(ctx, p, r, jobDescriptor)
	case domain.GroupCategory:
		return importGroup(ctx, p, r, categoryDescriptor)
	default:
		return p.fatal(r, domain.KindFatal, errors.Errorf("unknown dataset group %q", task.Group))
	}
}

// fatal records a task-level error and returns it typed.
func (p *Pipeline) fatal(r *run, kind domain.ErrorKind, err error) error {
	ie := domain.NewImportError(kind, 0, "", err)
	r.addError(ie.Record())
	return ie
}

// readRows picks the sheet of the task's group. Rows without a usable number
// are numbered as if they followed a header row.
func readRows(task *domain.ImportTask, src Source) ([]domain.ParsedRow, string, error) {
	if src == nil {
		rows := task.Rows
		for i, row := range rows {
			if row.RowNumber <= 0 {
				cols := row.Columns()
				vals := make([]domain.CellValue, len(cols))
				for j, c := range cols {
					vals[j], _ = row.Get(c)
				}
				rows[i] = domain.NewParsedRow(i+2, cols, vals)
			}
		}
		return rows, task.SheetName, nil
	}

	sheet := workbook.SelectSheet(src.SheetNames(), task.SheetName, catalog.SheetAliases(task.Group))
	rows, err := src.ReadSheet(sheet)
	if errors.Is(err, domain.ErrNoData) {
		return nil, sheet, nil
	}
	if err != nil {
		return nil, sheet, errors.Wrap(err, "read sheet")
	}
	return rows, sheet, nil
}

// pending is one record waiting to be written, with the row it came from.
type pending[T any] struct {
	row        int
	employeeID string
	entryID    string
	key        string
	record     T
}

// importGroup resolves, stages and writes the rows of one group.
func importGroup[T any](ctx context.Context, p *Pipeline, r *run, d descriptor[T]) error {
	group := string(d.group)

	var candidates []domain.ParsedRow
	for _, row := range r.rows {
		if !r.skip[row.RowNumber] {
			candidates = append(candidates, row)
		}
	}

	refs, err := resolveReferences(ctx, p.store, candidates, r.fields, d.lookups)
	if err != nil {
		return p.fatal(r, domain.KindFatal, errors.Wrap(err, "resolve references"))
	}

	var lines []pending[T]
	var employeeIDs []string
	seenEmployee := map[string]bool{}
	rowEmployee := map[int]string{}
	for _, row := range candidates {
		emp, rerr := refs.employee(row, r.fields)
		if rerr != nil {
			r.fail(*rerr)
			continue
		}
		records, errs := d.extract(row, r.fields, refs)
		if len(errs) > 0 {
			for _, e := range errs {
				r.fail(e)
			}
			continue
		}
		if len(records) == 0 {
			r.addWarning(domain.RecordError{Row: row.RowNumber, Kind: domain.KindEmptyDataset, Message: "row has no values to import"})
			continue
		}
		rowEmployee[row.RowNumber] = emp.ID
		if !seenEmployee[emp.ID] {
			seenEmployee[emp.ID] = true
			employeeIDs = append(employeeIDs, emp.ID)
		}
		for _, k := range records {
			lines = append(lines, pending[T]{row: row.RowNumber, employeeID: emp.ID, key: k.key, record: k.record})
		}
	}
	lines = dedupe(r, lines)

	// rows decided before any write
	settled := len(r.rows) - len(rowEmployee)
	r.tracker.Advance(settled, 0, len(r.failed))

	entryOf, created, failedEmployees, err := p.stageEntries(ctx, r, employeeIDs)
	r.outcome.CreatedIDs = orderedIDs(employeeIDs, entryOf, created)
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			r.addError(domain.RecordError{Kind: domain.KindCancelled, Message: "import cancelled before any record was written"})
		}
		return err
	}

	// drop the lines whose entry could not be written
	kept := lines[:0]
	for _, l := range lines {
		if ferr, ok := failedEmployees[l.employeeID]; ok {
			if !r.failed[l.row] {
				r.fail(domain.RecordError{Row: l.row, Kind: domain.KindBatchWriteFailure, Message: "write payroll entry: " + ferr.Error()})
			}
			continue
		}
		l.entryID = entryOf[l.employeeID]
		l.record = d.bind(l.record, l.entryID)
		kept = append(kept, l)
	}
	lines = kept

	// rows whose every value was superseded by a later row are done
	lastLine := map[int]int{}
	for i, l := range lines {
		lastLine[l.row] = i
	}
	var order []int
	early, earlyFailed := 0, 0
	for _, row := range r.rows {
		n := row.RowNumber
		if _, ok := rowEmployee[n]; !ok || r.failed[n] {
			continue
		}
		if _, ok := lastLine[n]; ok {
			order = append(order, n)
			continue
		}
		if ferr, ok := failedEmployees[rowEmployee[n]]; ok {
			r.fail(domain.RecordError{Row: n, Kind: domain.KindBatchWriteFailure, Message: "write payroll entry: " + ferr.Error()})
			earlyFailed++
			continue
		}
		r.succeeded[n] = true
		early++
	}
	r.tracker.Advance(early+earlyFailed, early, earlyFailed)

	affected := distinctEntries(lines)
	if d.replaceable && r.task.Mode == domain.ModeReplace {
		if err := r.checkCancelled(ctx); err != nil {
			return err
		}
		var existing []string
		for _, id := range affected {
			if !created[id] {
				existing = append(existing, id)
			}
		}
		if len(existing) > 0 {
			removed, err := p.store.DeleteItemsForEntries(ctx, existing)
			if err != nil {
				for _, n := range order {
					r.fail(domain.RecordError{Row: n, Kind: domain.KindBatchWriteFailure, Message: "clear existing items: " + err.Error()})
				}
				r.tracker.Advance(len(order), 0, len(order))
				return domain.NewImportError(domain.KindBatchWriteFailure, 0, "", errors.Wrap(err, "clear existing items"))
			}
			r.log.InfoContext(ctx, "existing items cleared", slog.Int("entries", len(existing)), slog.Int("items", removed))
		}
	}

	written, cursor := 0, 0
	op := BatchOperation[pending[T]]{
		Name:               group,
		Size:               p.batchSize,
		ContinueOnRowError: true,
		Before:             r.checkCancelled,
		Exec: func(ctx context.Context, batch []pending[T]) error {
			records := make([]T, len(batch))
			for i, l := range batch {
				records[i] = l.record
			}
			return d.write(ctx, p.store, records)
		},
		After: func(batch []pending[T], err error, elapsed time.Duration) {
			written += len(batch)
			if err != nil {
				for _, l := range batch {
					if !r.failed[l.row] {
						r.fail(domain.RecordError{Row: l.row, Kind: domain.KindBatchWriteFailure, Message: fmt.Sprintf("write %s batch: %v", group, err)})
					}
				}
			}
			succ, fail := 0, 0
			for cursor < len(order) && lastLine[order[cursor]] < written {
				n := order[cursor]
				if r.failed[n] {
					fail++
				} else {
					r.succeeded[n] = true
					succ++
				}
				cursor++
			}
			r.tracker.Advance(succ+fail, succ, fail)
			metrics.ObserveBatchDuration("import", group, "write", elapsed.Seconds())
			r.log.Debug("batch written",
				slog.Int("records", len(batch)),
				slog.Int("written", written),
				slog.Int("total", len(lines)),
				slog.Bool("failed", err != nil),
				slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
			)
		},
	}
	result, runErr := op.Run(ctx, lines)

	touched := map[string]bool{}
	for _, l := range result.Succeeded {
		touched[l.entryID] = true
	}
	for _, id := range affected {
		if touched[id] && !created[id] {
			r.outcome.UpdatedIDs = append(r.outcome.UpdatedIDs, id)
		}
	}

	if d.finish != nil {
		var ids []string
		for _, id := range affected {
			if touched[id] {
				ids = append(ids, id)
			}
		}
		if err := d.finish(ctx, p.store, ids); err != nil {
			r.addError(domain.RecordError{Kind: domain.KindBatchWriteFailure, Message: err.Error()})
		}
	}

	if runErr != nil {
		r.addError(domain.RecordError{
			Kind:    domain.KindCancelled,
			Message: fmt.Sprintf("import cancelled, %d of %d records not written", len(lines)-result.Attempted, len(lines)),
		})
		return runErr
	}

	if len(r.outcome.CreatedIDs) > 0 && len(r.outcome.UpdatedIDs) == 0 {
		token := p.newID()
		r.outcome.RollbackToken = &token
	}
	return nil
}

// stageEntries makes sure every employee has a payroll entry for the period.
// It returns employee id -> entry id, the set of entries created by this run
// and the employees whose entry could not be written.
func (p *Pipeline) stageEntries(ctx context.Context, r *run, employeeIDs []string) (map[string]string, map[string]bool, map[string]error, error) {
	entryOf := make(map[string]string, len(employeeIDs))
	created := map[string]bool{}
	failed := map[string]error{}
	if len(employeeIDs) == 0 {
		return entryOf, created, failed, nil
	}

	existing, err := p.store.EntriesForEmployees(ctx, r.task.PeriodID, employeeIDs)
	if err != nil {
		return entryOf, created, failed, p.fatal(r, domain.KindFatal, errors.Wrap(err, "load payroll entries"))
	}

	now := p.now()
	var staged []domain.PayrollEntry
	for _, id := range employeeIDs {
		if e, ok := existing[id]; ok {
			entryOf[id] = e.ID
			continue
		}
		staged = append(staged, domain.PayrollEntry{
			ID:         p.newID(),
			EmployeeID: id,
			PeriodID:   r.task.PeriodID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	op := BatchOperation[domain.PayrollEntry]{
		Name:               "entries",
		Size:               p.batchSize,
		ContinueOnRowError: true,
		Before:             r.checkCancelled,
		Exec: func(ctx context.Context, batch []domain.PayrollEntry) error {
			stored, err := p.store.UpsertEntries(ctx, batch)
			if err != nil {
				return err
			}
			// the store may keep an id it already had; remap from the staged one
			for i, e := range stored {
				entryOf[batch[i].EmployeeID] = e.ID
				if e.ID == batch[i].ID {
					created[e.ID] = true
				}
			}
			return nil
		},
		After: func(batch []domain.PayrollEntry, err error, elapsed time.Duration) {
			metrics.ObserveBatchDuration("import", string(r.task.Group), "entries", elapsed.Seconds())
		},
	}
	result, err := op.Run(ctx, staged)
	for _, f := range result.Failed {
		failed[f.Item.EmployeeID] = f.Err
	}
	return entryOf, created, failed, err
}

// dedupe keeps the last record per (employee, key). Earlier rows get a warning.
func dedupe[T any](r *run, lines []pending[T]) []pending[T] {
	type ident struct{ employee, key string }
	last := make(map[ident]int, len(lines))
	for i, l := range lines {
		last[ident{l.employeeID, l.key}] = i
	}

	warned := map[[2]int]bool{}
	out := make([]pending[T], 0, len(last))
	for i, l := range lines {
		j := last[ident{l.employeeID, l.key}]
		if j == i {
			out = append(out, l)
			continue
		}
		later := lines[j].row
		if pair := [2]int{l.row, later}; !warned[pair] && l.row != later {
			warned[pair] = true
			r.addWarning(domain.RecordError{
				Row:     l.row,
				Kind:    domain.KindDuplicateRow,
				Message: fmt.Sprintf("values superseded by row %d", later),
			})
		}
	}
	return out
}

func distinctEntries[T any](lines []pending[T]) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lines {
		if id := l.entryID; id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// orderedIDs lists the created entries in employee order.
func orderedIDs(employeeIDs []string, entryOf map[string]string, created map[string]bool) []string {
	var out []string
	for _, emp := range employeeIDs {
		if id, ok := entryOf[emp]; ok && created[id] {
			out = append(out, id)
		}
	}
	return out
}
