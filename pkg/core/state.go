package core

import "time"

// Store defines the interface for extraction run history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	CreateRun(sourcePath string) (*Run, error)
	GetRun(id string) (*Run, error)
	GetLatestRun(sourcePath string) (*Run, error)
	CompleteRun(id string, status RunStatus, summary RunSummary, errMsg string) error
	ListRuns(limit int) ([]*Run, error)

	SaveWarnings(runID string, warnings []Warning) error
	GetWarnings(runID string) ([]Warning, error)
}

// RunStatus represents the status of an extraction run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunSummary counts what an extraction produced.
type RunSummary struct {
	Models   int
	Entities int
	Mappings int
	Warnings int
}

// Run is one extraction of a document.
type Run struct {
	ID          string
	SourcePath  string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Summary     RunSummary
}

// Summarize counts the objects of a resolved document.
func Summarize(doc *Document) RunSummary {
	if doc == nil {
		return RunSummary{}
	}
	s := RunSummary{
		Models:   len(doc.Models),
		Mappings: len(doc.Mappings),
		Warnings: len(doc.Warnings),
	}
	for _, m := range doc.Models {
		s.Entities += len(m.Entities)
	}
	return s
}
