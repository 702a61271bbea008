package extract

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// Warnings collects the non-fatal conditions met while resolving a
// document and logs each one as it is recorded. A nil *Warnings discards.
type Warnings struct {
	mu     sync.Mutex
	logger *slog.Logger
	items  []core.Warning
}

// NewWarnings creates a collector logging to logger.
// If logger is nil, a discard logger is used.
func NewWarnings(logger *slog.Logger) *Warnings {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Warnings{logger: logger}
}

// Add records a warning at warning level.
func (w *Warnings) Add(kind core.WarningKind, stage, recordID, recordName, message string) {
	w.record(slog.LevelWarn, core.Warning{
		Kind:       kind,
		Stage:      stage,
		RecordID:   recordID,
		RecordName: recordName,
		Message:    message,
	})
}

// AddError records a warning but logs it at error level.
func (w *Warnings) AddError(kind core.WarningKind, stage, recordID, recordName, message string) {
	w.record(slog.LevelError, core.Warning{
		Kind:       kind,
		Stage:      stage,
		RecordID:   recordID,
		RecordName: recordName,
		Message:    message,
	})
}

func (w *Warnings) record(level slog.Level, warning core.Warning) {
	if w == nil {
		return
	}
	w.logger.Log(context.Background(), level, warning.Message,
		"kind", string(warning.Kind),
		"stage", warning.Stage,
		"id", warning.RecordID,
		"name", warning.RecordName,
	)
	w.mu.Lock()
	w.items = append(w.items, warning)
	w.mu.Unlock()
}

// Items returns a copy of the recorded warnings in recording order.
func (w *Warnings) Items() []core.Warning {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Warning, len(w.items))
	copy(out, w.items)
	return out
}

// Len returns the number of recorded warnings.
func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Logger returns the collector's logger.
func (w *Warnings) Logger() *slog.Logger {
	if w == nil || w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}
