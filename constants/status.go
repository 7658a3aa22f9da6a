package constants

// JobStatus is the canonical status for rows in import_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusParsed  JobStatus = "PARSED" // shifts extracted and stored
	JobStatusEmpty   JobStatus = "EMPTY"  // nothing recognizable, ask for a clearer source
	JobStatusFailed  JobStatus = "FAILED" // terminal failure
)

// Import methods reported on results and jobs.
const (
	MethodImageOCR    = "image-ocr"
	MethodImageVision = "image-vision"
	MethodPDFTable    = "pdf-table"
	MethodPDFOCR      = "pdf-ocr"
	MethodText        = "text"
)
