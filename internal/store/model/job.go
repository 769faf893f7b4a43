package model

import "github.com/google/uuid"

// Error kinds surfaced on job metadata. Validation errors never reach a job
// record; these describe stage execution failures.
const (
	ErrorKindInsufficientContent  = "InsufficientContent"
	ErrorKindExtractionFailed     = "ExtractionFailed"
	ErrorKindClassificationFailed = "ClassificationFailed"
	ErrorKindTrainingFailed       = "TrainingFailed"
)

// Job source tags distinguishing the originating call path.
const (
	JobSourcePipeline  = "pipeline"
	JobSourceReprocess = "reprocess"
)

// JobMetadata is stored in river_job.metadata to track progress and results.
// It has a single writer: the worker currently processing the job. The one
// exception is a freshly chained classification job, whose metadata is seeded
// by the extraction worker before the job first runs.
type JobMetadata struct {
	Progress     int        `json:"progress,omitempty"`       // 0-100, monotonic while running
	Message      string     `json:"message,omitempty"`        // human-readable stage description
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`    // extraction and classification jobs
	DatasetID    *uuid.UUID `json:"dataset_id,omitempty"`     // retraining jobs
	ChainedJobID *int64     `json:"chained_job_id,omitempty"` // classification job spawned on extraction success
	ParentJobID  *int64     `json:"parent_job_id,omitempty"`  // extraction job that chained this classification job
	Source       string     `json:"source,omitempty"`         // pipeline | reprocess
	ErrorKind    string     `json:"error_kind,omitempty"`     // set when the logical pipeline failed
	Error        string     `json:"error,omitempty"`          // verbatim failure text
}
