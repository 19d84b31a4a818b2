// Package worker runs deferred heavy work off the caller's loop. Its
// contract is deliberately small: signal start, run the task
// uninterrupted, signal completion. There is no cancellation; a task
// that has started always runs to its end.
package worker

import (
	"fmt"
	"log/slog"

	"github.com/jlaval-gh/Trajectory-Explorer/internal/channel"
)

// Status marks a task lifecycle transition.
type Status int

const (
	// StatusStarted is sent once, before the task function runs.
	StatusStarted Status = iota
	// StatusCompleted is sent after the task function returned nil.
	StatusCompleted
	// StatusFailed is sent after the task function returned an error.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Update is one lifecycle notification for a submitted task.
type Update struct {
	Task   string
	Status Status
	Err    error
}

// Manager submits tasks and reports their lifecycle over channels.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a worker manager. A nil logger falls back to
// slog.Default.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Submit schedules fn to run on its own goroutine and returns a receiver
// that delivers StatusStarted before fn runs and StatusCompleted or
// StatusFailed after it returns. The channel buffer holds both updates,
// so the task never blocks on a slow consumer; the channel is closed
// after the terminal update.
func (m *Manager) Submit(name string, fn func() error) channel.Receiver[Update] {
	ch := channel.New[Update](2)
	go func() {
		defer ch.Close()
		ch.Send(Update{Task: name, Status: StatusStarted})
		m.logger.Debug("task started", "task", name)

		if err := fn(); err != nil {
			m.logger.Error("task failed", "task", name, "error", err)
			ch.Send(Update{Task: name, Status: StatusFailed, Err: err})
			return
		}

		m.logger.Debug("task completed", "task", name)
		ch.Send(Update{Task: name, Status: StatusCompleted})
	}()
	return ch
}

// Wait drains updates until the terminal one and returns the task's error,
// if any.
func Wait(r channel.Receiver[Update]) error {
	var err error
	for u := range r.Receive() {
		if u.Status == StatusFailed {
			err = u.Err
		}
	}
	return err
}
