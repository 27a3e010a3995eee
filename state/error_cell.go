package state

import (
	"sync"
	"time"

	apierrors "langteacher/errors"

	"go.uber.org/zap"
)

// stopper is the part of *time.Timer the error cell needs.
type stopper interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// ErrorCell holds the user facing error message. Any non-empty write is
// cleared after the configured delay unless a newer write happened first:
// each write bumps a generation and a scheduled clear only fires for the
// generation it was scheduled for.
type ErrorCell struct {
	cell      *Cell[string]
	delay     time.Duration
	afterFunc func(time.Duration, func()) stopper
	logger    *zap.Logger

	mu         sync.Mutex
	generation uint64
	timer      stopper
}

func NewErrorCell(delay time.Duration, logger *zap.Logger) *ErrorCell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorCell{
		cell:      NewCell(""),
		delay:     delay,
		afterFunc: realAfterFunc,
		logger:    logger,
	}
}

func (e *ErrorCell) Get() string {
	return e.cell.Get()
}

func (e *ErrorCell) Subscribe(fn func(string)) func() {
	return e.cell.Subscribe(fn)
}

// Set stores msg, cancels the previous scheduled clear and, when msg is not
// empty, schedules a new one.
func (e *ErrorCell) Set(msg string) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if msg != "" {
		e.timer = e.afterFunc(e.delay, func() { e.expire(gen) })
		e.logger.Debug("Error scheduled to clear",
			zap.Uint64("generation", gen),
			zap.Duration("delay", e.delay))
	}
	notify := e.cell.store(msg)
	e.mu.Unlock()

	notify()
}

// SetError stores the user facing message of err. A nil err clears.
func (e *ErrorCell) SetError(err error) {
	e.Set(apierrors.Message(err))
}

func (e *ErrorCell) Clear() {
	e.Set("")
}

// Close cancels any pending clear.
func (e *ErrorCell) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *ErrorCell) expire(gen uint64) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		e.logger.Debug("Stale error clear ignored", zap.Uint64("generation", gen))
		return
	}
	e.generation++
	e.timer = nil
	notify := e.cell.store("")
	e.mu.Unlock()

	notify()
}
