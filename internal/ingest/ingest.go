package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
)

// Outcome is the per-file ingest result.
type Outcome struct {
	JobID      uuid.UUID           `json:"jobId"`
	SourcePath string              `json:"sourcePath"`
	HashHex    string              `json:"hash"`
	Status     constants.JobStatus `json:"status"`
	Method     string              `json:"method,omitempty"`
	Period     string              `json:"period,omitempty"`
	Shifts     int                 `json:"shifts"`
	Warnings   []string            `json:"warnings,omitempty"`
	Err        string              `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Empty     uint32
	Failed    uint32
}

// Ingestor is the behavior the daemon and the CLI depend on.
type Ingestor interface {
	// IngestPath imports a single file.
	IngestPath(ctx context.Context, path string) (Outcome, error)
	// IngestDirectory imports all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Outcome, DirStats, error)
}

// EmployeeFromConfig returns the configured roster selector, or nil when
// neither a name nor an ID is set.
func EmployeeFromConfig(c common.IngestConfig) *pdftable.Employee {
	if c.EmployeeName == "" && c.EmployeeID == "" {
		return nil
	}
	return &pdftable.Employee{Name: c.EmployeeName, ID: c.EmployeeID}
}
