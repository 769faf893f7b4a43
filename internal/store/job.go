package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river/rivertype"
	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/store/model"
)

// JobRow represents a row from the river_job table. River owns the state
// machine columns; the metadata column carries pipeline progress and is
// written only by the worker processing the job.
type JobRow struct {
	ID           int64              `gorm:"column:id;primaryKey"`
	State        rivertype.JobState `gorm:"column:state"`
	Queue        string             `gorm:"column:queue"`
	Kind         string             `gorm:"column:kind"`
	ArgsJSON     []byte             `gorm:"column:args"`
	MetadataJSON []byte             `gorm:"column:metadata"`
	ErrorsJSON   []byte             `gorm:"column:errors"`
	CreatedAt    time.Time          `gorm:"column:created_at"`
	AttemptedAt  *time.Time         `gorm:"column:attempted_at"`
	FinalizedAt  *time.Time         `gorm:"column:finalized_at"`
}

// TableName specifies the table name for GORM
func (JobRow) TableName() string {
	return "river_job"
}

// Metadata decodes the pipeline metadata attached to the row.
func (r *JobRow) Metadata() (model.JobMetadata, error) {
	var meta model.JobMetadata
	if len(r.MetadataJSON) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(r.MetadataJSON, &meta); err != nil {
		return meta, fmt.Errorf("decoding job metadata: %w", err)
	}
	return meta, nil
}

// LastError returns the most recent attempt error text, if any.
func (r *JobRow) LastError() string {
	if len(r.ErrorsJSON) == 0 {
		return ""
	}
	var attemptErrors []rivertype.AttemptError
	if err := json.Unmarshal(r.ErrorsJSON, &attemptErrors); err != nil {
		return ""
	}
	if len(attemptErrors) == 0 {
		return ""
	}
	return attemptErrors[len(attemptErrors)-1].Error
}

// Job interface for job-related database operations
type Job interface {
	Get(ctx context.Context, id int64) (*JobRow, error)
	List(ctx context.Context, filter *JobQueryFilter) ([]JobRow, error)
	UpdateMetadata(ctx context.Context, id int64, meta model.JobMetadata) error
	// PurgeTerminal deletes finished or failed jobs finalized before the
	// cutoff. Operator maintenance only; live jobs are never touched.
	PurgeTerminal(ctx context.Context, olderThan time.Time) (int64, error)
}

// JobStore implements the Job interface
type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

// NewJobStore creates a new job store
func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

// Get retrieves a job by ID from the river_job table
func (s *JobStore) Get(ctx context.Context, id int64) (*JobRow, error) {
	var jobRow JobRow
	result := s.getDB(ctx).First(&jobRow, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}

	return &jobRow, nil
}

// List returns job rows matching the filter, most recent first. This is the
// queryable replacement for a process-wide "active jobs" registry.
func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter) ([]JobRow, error) {
	var rows []JobRow
	tx := s.getDB(ctx).Model(&JobRow{}).Order("id DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("listing jobs: %w", result.Error)
	}
	return rows, nil
}

// UpdateMetadata replaces the metadata of a job. Single-writer per job: only
// the worker currently processing the job may call this.
func (s *JobStore) UpdateMetadata(ctx context.Context, id int64, meta model.JobMetadata) error {
	metadataJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding job metadata: %w", err)
	}

	result := s.getDB(ctx).Model(&JobRow{}).Where("id = ?", id).Update("metadata", metadataJSON)
	if result.Error != nil {
		return fmt.Errorf("updating job metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (s *JobStore) PurgeTerminal(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.getDB(ctx).
		Where("state IN ?", []string{
			string(rivertype.JobStateCompleted),
			string(rivertype.JobStateDiscarded),
			string(rivertype.JobStateCancelled),
		}).
		Where("finalized_at < ?", olderThan).
		Delete(&JobRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("purging jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
