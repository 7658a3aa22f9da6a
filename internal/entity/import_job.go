package entity

import (
	"time"

	"github.com/google/uuid"
)

// ImportJob records one import attempt for auditing.
type ImportJob struct {
	ID           uuid.UUID  `json:"id"`
	SourcePath   string     `json:"source_path"`
	Format       string     `json:"format"`
	Method       *string    `json:"method,omitempty"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ShiftsFound  int        `json:"shifts_found"`
	Period       *string    `json:"period,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}
