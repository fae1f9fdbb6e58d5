package syncclient

import (
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

const (
	// DebounceDelay is the window in which repeated next/previous actions
	// coalesce into one persistence call per direction.
	DebounceDelay = 500 * time.Millisecond

	// MaxFlushAttempts bounds retries of a failed batch before the
	// failure is surfaced instead of silently retried forever.
	MaxFlushAttempts = 5
)

// StatusFlusher persists processed-flag batches, e.g. over the agenda
// status endpoint.
type StatusFlusher interface {
	MarkProcessed(meetingID string, ids []string) error
	MarkUnprocessed(meetingID string, ids []string) error
}

// Session drives one user's optimistic agenda progression: "next" marks
// the current item processed locally and immediately, records it on the
// processing stack, and schedules the id for debounced persistence;
// "previous" pops the stack and does the reverse. The two directions keep
// independent debounce queues so rapid toggling costs at most one call
// per direction per window.
type Session struct {
	meetingID string
	editor    *Editor
	stack     *ProcessingStack
	process   *Batcher
	unprocess *Batcher

	// Now is swappable for tests.
	Now func() time.Time
}

// OnSyncFail is invoked after a batch exhausts its retries.
type OnSyncFail func(ids []string, err error)

func NewSession(meetingID string, editor *Editor, flusher StatusFlusher, store StackStore, onFail OnSyncFail) (*Session, error) {
	stack, err := NewProcessingStack(meetingID, store)
	if err != nil {
		return nil, err
	}

	fail := func(ids []string, err error) {
		logger.Error("Giving up on status batch for meeting %s: %v", meetingID, err)
		if onFail != nil {
			onFail(ids, err)
		}
	}

	return &Session{
		meetingID: meetingID,
		editor:    editor,
		stack:     stack,
		process: NewBatcher(DebounceDelay, MaxFlushAttempts, func(ids []string) error {
			return flusher.MarkProcessed(meetingID, ids)
		}, fail),
		unprocess: NewBatcher(DebounceDelay, MaxFlushAttempts, func(ids []string) error {
			return flusher.MarkUnprocessed(meetingID, ids)
		}, fail),
		Now: time.Now,
	}, nil
}

// Next advances past the current item. Returns false when every item is
// already processed.
func (s *Session) Next() bool {
	item := s.editor.Current()
	if item == nil {
		return false
	}

	s.editor.MarkProcessed(item.ID, true, s.Now())
	s.stack.Push(item.ID)
	s.process.Add(item.ID)
	return true
}

// Previous reverses the most recent local advance. Returns false when the
// stack is empty.
func (s *Session) Previous() bool {
	id, ok := s.stack.Pop()
	if !ok {
		return false
	}

	s.editor.MarkProcessed(id, false, s.Now())
	s.unprocess.Add(id)
	return true
}

// Flush pushes both pending batches immediately, e.g. before page unload.
func (s *Session) Flush() {
	s.process.Flush()
	s.unprocess.Flush()
}

func (s *Session) Close() {
	s.process.Stop()
	s.unprocess.Stop()
}
