// Package progress tracks the state of one running import.
//
// A Tracker has a single writer (the pipeline) and any number of readers.
// Readers never see shared state: they get deep-copied snapshots, either by
// polling Snapshot or by subscribing. Every method is a no-op on a nil
// *Tracker so callers may run without progress reporting.
package progress

import (
	"sync"
	"time"

	"payroll-import/internal/domain"
)

// Update is a partial change to the counters. Nil fields are left as they are.
type Update struct {
	Phase            *domain.Phase
	GroupName        *string
	SheetName        *string
	CurrentTotal     *int
	CurrentProcessed *int
	SuccessCount     *int
	ErrorCount       *int
	ProcessedRecords *int
	ProcessedGroups  *int
	Message          *string
}

// Tracker holds the progress of one import task.
type Tracker struct {
	mu          sync.RWMutex
	state       domain.ImportProgress
	subscribers []chan domain.ImportProgress
	now         func() time.Time
}

// New creates a tracker in the parsing phase.
func New() *Tracker {
	t := &Tracker{now: time.Now}
	t.state = t.initial()
	return t
}

func (t *Tracker) initial() domain.ImportProgress {
	return domain.ImportProgress{Phase: domain.PhaseParsing, UpdatedAt: t.now()}
}

// Initialize sets the totals of a task and resets everything else. A cancel
// requested before the task started survives.
func (t *Tracker) Initialize(totalRecords int, groups []domain.DatasetGroup) {
	if t == nil {
		return
	}
	t.mu.Lock()
	prev := t.state
	t.state = t.initial()
	if prev.Cancelled {
		t.state.Cancelled = true
		t.state.Phase = domain.PhaseError
		t.state.Message = prev.Message
	}
	t.state.Global.TotalRecords = totalRecords
	t.state.Global.TotalGroups = len(groups)
	if len(groups) > 0 {
		t.state.Current.GroupName = string(groups[0])
	}
	t.publishLocked()
	t.mu.Unlock()
}

// Update applies a partial change.
func (t *Tracker) Update(u Update) {
	if t == nil {
		return
	}
	t.mu.Lock()
	s := &t.state
	if u.Phase != nil {
		s.Phase = *u.Phase
	}
	if u.GroupName != nil {
		s.Current.GroupName = *u.GroupName
	}
	if u.SheetName != nil {
		s.Current.SheetName = *u.SheetName
	}
	if u.CurrentTotal != nil {
		s.Current.TotalRecords = *u.CurrentTotal
	}
	if u.CurrentProcessed != nil {
		s.Current.ProcessedRecords = *u.CurrentProcessed
	}
	if u.SuccessCount != nil {
		s.Current.SuccessCount = *u.SuccessCount
	}
	if u.ErrorCount != nil {
		s.Current.ErrorCount = *u.ErrorCount
	}
	if u.ProcessedRecords != nil {
		s.Global.ProcessedRecords = *u.ProcessedRecords
	}
	if u.ProcessedGroups != nil {
		s.Global.ProcessedGroups = *u.ProcessedGroups
	}
	if u.Message != nil {
		s.Message = *u.Message
	}
	t.publishLocked()
	t.mu.Unlock()
}

// Advance records a finished batch of the current group.
func (t *Tracker) Advance(processed, succeeded, failed int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.state.Current.ProcessedRecords += processed
	t.state.Current.SuccessCount += succeeded
	t.state.Current.ErrorCount += failed
	t.state.Global.ProcessedRecords += processed
	t.publishLocked()
	t.mu.Unlock()
}

// AddError appends a row-scoped error.
func (t *Tracker) AddError(e domain.RecordError) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.state.Errors = append(t.state.Errors, e)
	t.publishLocked()
	t.mu.Unlock()
}

// AddWarning appends an advisory entry.
func (t *Tracker) AddWarning(w domain.RecordError) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.state.Warnings = append(t.state.Warnings, w)
	t.publishLocked()
	t.mu.Unlock()
}

// SetPhase moves to a phase. Once terminal, the phase no longer changes.
func (t *Tracker) SetPhase(p domain.Phase) {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.state.Phase.IsTerminal() {
		t.state.Phase = p
		t.publishLocked()
	}
	t.mu.Unlock()
}

// SetMessage replaces the human readable status line.
func (t *Tracker) SetMessage(msg string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.state.Message = msg
	t.publishLocked()
	t.mu.Unlock()
}

// Reset returns the tracker to its initial state.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.state = t.initial()
	t.publishLocked()
	t.mu.Unlock()
}

// Cancel flags the task as cancelled and moves it to the error phase. It does
// not interrupt in-flight work; the pipeline polls Cancelled between batches.
func (t *Tracker) Cancel(reason string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.state.Phase.IsTerminal() {
		t.mu.Unlock()
		return
	}
	if reason == "" {
		reason = "import cancelled by user"
	}
	t.state.Cancelled = true
	t.state.Phase = domain.PhaseError
	t.state.Message = reason
	t.publishLocked()
	t.mu.Unlock()
}

// Cancelled reports whether Cancel was called.
func (t *Tracker) Cancelled() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Cancelled
}

// Complete moves the task to its terminal phase from the outcome: error when
// nothing succeeded and something failed, completed otherwise.
func (t *Tracker) Complete(outcome domain.ImportOutcome) {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.state.Phase.IsTerminal() {
		t.state.Phase = domain.PhaseCompleted
		if outcome.Status() == domain.JobStatusFailed {
			t.state.Phase = domain.PhaseError
		}
	}
	t.state.Global.ProcessedGroups = t.state.Global.TotalGroups
	if !t.state.Cancelled {
		t.state.Message = summary(outcome)
	}
	t.publishLocked()
	t.mu.Unlock()
}

// Fail moves the task to the error phase with a message.
func (t *Tracker) Fail(msg string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.state.Phase = domain.PhaseError
	t.state.Message = msg
	t.publishLocked()
	t.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() domain.ImportProgress {
	if t == nil {
		return domain.ImportProgress{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copyLocked()
}

// Subscribe returns a channel receiving a snapshot after every change. A slow
// reader only ever sees the latest snapshot. The channel is closed by the
// returned cancel function.
func (t *Tracker) Subscribe() (<-chan domain.ImportProgress, func()) {
	ch := make(chan domain.ImportProgress, 1)
	if t == nil {
		close(ch)
		return ch, func() {}
	}
	t.mu.Lock()
	t.subscribers = append(t.subscribers, ch)
	ch <- t.copyLocked()
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			for i, s := range t.subscribers {
				if s == ch {
					t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
					break
				}
			}
			close(ch)
			t.mu.Unlock()
		})
	}
}

func (t *Tracker) copyLocked() domain.ImportProgress {
	c := t.state
	c.Errors = append([]domain.RecordError(nil), t.state.Errors...)
	c.Warnings = append([]domain.RecordError(nil), t.state.Warnings...)
	return c
}

// publishLocked stamps the state and hands a snapshot to every subscriber,
// replacing an unread one.
func (t *Tracker) publishLocked() {
	t.state.UpdatedAt = t.now()
	if len(t.subscribers) == 0 {
		return
	}
	snap := t.copyLocked()
	for _, ch := range t.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
