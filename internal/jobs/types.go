package jobs

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Queue names. Each pipeline stage has a dedicated queue with its own worker
// pool so a backlog in one stage never starves the others.
const (
	QueueExtraction     = "extraction"
	QueueClassification = "classification"
	QueueRetraining     = "retraining"

	MaxJobRetries = 1
)

// ExtractionArgs contains the arguments for a text extraction job.
// This is stored in river_job.args as JSON.
type ExtractionArgs struct {
	DocumentID uuid.UUID `json:"document_id"`
	Source     string    `json:"source"`
}

// Kind returns the job kind for River registration.
func (ExtractionArgs) Kind() string {
	return "document_extract"
}

// InsertOpts returns the default insert options for this job type.
func (ExtractionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueExtraction,
		MaxAttempts: MaxJobRetries,
	}
}

// ClassificationArgs contains the arguments for an item classification job,
// either chained from extraction or enqueued directly on reprocessing.
// ParentJobID is the extraction job that chained this one; it stays nil for
// directly enqueued jobs.
type ClassificationArgs struct {
	DocumentID  uuid.UUID `json:"document_id"`
	Source      string    `json:"source"`
	ParentJobID *int64    `json:"parent_job_id,omitempty"`
}

func (ClassificationArgs) Kind() string {
	return "document_classify"
}

func (ClassificationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueClassification,
		MaxAttempts: MaxJobRetries,
	}
}

// RetrainingArgs contains the arguments for a model retraining job.
type RetrainingArgs struct {
	DatasetID       uuid.UUID `json:"dataset_id"`
	ValidationSplit float64   `json:"validation_split,omitempty"`
	Epochs          int       `json:"epochs,omitempty"`
	LearningRate    float64   `json:"learning_rate,omitempty"`
}

func (RetrainingArgs) Kind() string {
	return "model_retrain"
}

func (RetrainingArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueRetraining,
		MaxAttempts: MaxJobRetries,
	}
}
