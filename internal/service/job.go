package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/pkg/log"
)

// Caller-facing job states. River's internal states collapse into four.
const (
	JobStateQueued   = "queued"
	JobStateStarted  = "started"
	JobStateFinished = "finished"
	JobStateFailed   = "failed"
)

// JobController is the slice of the river client the service needs for
// cancellation. Satisfied by jobs.Client; tests substitute a fake.
type JobController interface {
	JobCancel(ctx context.Context, jobID int64) (*rivertype.JobRow, error)
}

// StageStatus is a single job's view of its stage. ParentJobID links a
// chained classification job back to the extraction job that spawned it.
type StageStatus struct {
	JobID       int64  `json:"job_id"`
	ParentJobID *int64 `json:"parent_job_id,omitempty"`
	Queue       string `json:"queue"`
	State       string `json:"state"`
	Progress    int    `json:"progress"`
	Message     string `json:"message,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

// PipelineStatus merges the extraction job with its chained classification
// job. It is computed fresh on every poll; nothing here is stored.
type PipelineStatus struct {
	DocumentID *uuid.UUID   `json:"document_id,omitempty"`
	DatasetID  *uuid.UUID   `json:"dataset_id,omitempty"`
	Source     string       `json:"source,omitempty"`
	State      string       `json:"state"`
	Progress   int          `json:"progress"`
	Primary    StageStatus  `json:"primary"`
	Chained    *StageStatus `json:"chained,omitempty"`
}

type JobService struct {
	store      store.Store
	controller JobController
	logger     *log.StructuredLogger
}

func NewJobService(s store.Store, controller JobController) *JobService {
	return &JobService{
		store:      s,
		controller: controller,
		logger:     log.NewDebugLogger("job_service"),
	}
}

// GetPipelineStatus returns the merged status for a job. For extraction jobs
// the chained classification job, when present, is folded in.
func (s *JobService) GetPipelineStatus(ctx context.Context, jobID int64) (*PipelineStatus, error) {
	row, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	var chained *store.JobRow
	if meta, err := row.Metadata(); err == nil && meta.ChainedJobID != nil {
		chainedRow, err := s.store.Job().Get(ctx, *meta.ChainedJobID)
		if err == nil {
			chained = chainedRow
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
	}

	status := MergePipelineStatus(row, chained)
	return &status, nil
}

// ListJobs returns per-job stage statuses, optionally narrowed by queue and
// caller-facing states.
func (s *JobService) ListJobs(ctx context.Context, queue string, states ...string) ([]StageStatus, error) {
	filter := store.NewJobQueryFilter()
	if queue != "" {
		filter = filter.ByQueue(queue)
	}
	if len(states) > 0 {
		filter = filter.ByState(expandStates(states)...)
	}

	rows, err := s.store.Job().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	statuses := make([]StageStatus, 0, len(rows))
	for i := range rows {
		statuses = append(statuses, stageStatus(&rows[i]))
	}
	return statuses, nil
}

// CancelJob requests best-effort cancellation of a job and, for extraction
// jobs, of the chained classification job as well. Work already in flight is
// not preempted; workers notice at their guard points.
func (s *JobService) CancelJob(ctx context.Context, jobID int64) (*PipelineStatus, error) {
	tracer := s.logger.WithContext(ctx).Operation("cancel_job").WithParam("job_id", jobID).Build()

	row, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	if isTerminal(row.State) {
		return nil, NewErrJobAlreadyCompleted(jobID)
	}

	if _, err := s.controller.JobCancel(ctx, jobID); err != nil {
		if errors.Is(err, river.ErrNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	if meta, err := row.Metadata(); err == nil && meta.ChainedJobID != nil {
		if chained, err := s.store.Job().Get(ctx, *meta.ChainedJobID); err == nil && !isTerminal(chained.State) {
			if _, err := s.controller.JobCancel(ctx, chained.ID); err != nil {
				tracer.Error(err).Step("cancel_chained").Log()
			}
		}
	}

	tracer.Success().Log()
	return s.GetPipelineStatus(ctx, jobID)
}

// PurgeTerminalJobs deletes finished or failed jobs older than the retention
// window. Operator maintenance endpoint.
func (s *JobService) PurgeTerminalJobs(ctx context.Context, retention time.Duration) (int64, error) {
	tracer := s.logger.WithContext(ctx).Operation("purge_jobs").WithParam("retention", retention.String()).Build()

	purged, err := s.store.Job().PurgeTerminal(ctx, time.Now().Add(-retention))
	if err != nil {
		tracer.Error(err).Log()
		return 0, err
	}

	tracer.Success().WithParam("purged", purged).Log()
	return purged, nil
}

// MergePipelineStatus folds a job row and its optional chained row into one
// status. Pure so the merge rules are testable without a database.
func MergePipelineStatus(primary *store.JobRow, chained *store.JobRow) PipelineStatus {
	primaryStage := stageStatus(primary)
	status := PipelineStatus{
		State:    primaryStage.State,
		Progress: primaryStage.Progress,
		Primary:  primaryStage,
	}

	if meta, err := primary.Metadata(); err == nil {
		status.DocumentID = meta.DocumentID
		status.DatasetID = meta.DatasetID
		status.Source = meta.Source
	}

	// A finished job whose metadata carries an error kind is a logical
	// pipeline failure: the worker completed but the stage did not.
	if primaryStage.State == JobStateFinished && primaryStage.ErrorKind != "" {
		status.State = JobStateFailed
	}

	if chained == nil {
		return status
	}

	chainedStage := stageStatus(chained)
	status.Chained = &chainedStage
	status.Progress = (primaryStage.Progress + chainedStage.Progress) / 2

	if primaryStage.State == JobStateFinished && primaryStage.ErrorKind == "" {
		switch chainedStage.State {
		case JobStateQueued:
			// stage 1 done, stage 2 pending: the pipeline is still moving
			status.State = JobStateStarted
		case JobStateFinished:
			if chainedStage.ErrorKind != "" {
				status.State = JobStateFailed
			} else {
				status.State = JobStateFinished
			}
		default:
			status.State = chainedStage.State
		}
	}

	return status
}

func stageStatus(row *store.JobRow) StageStatus {
	status := StageStatus{
		JobID: row.ID,
		Queue: row.Queue,
		State: mapJobState(row.State),
		Error: row.LastError(),
	}
	if meta, err := row.Metadata(); err == nil {
		status.ParentJobID = meta.ParentJobID
		status.Progress = meta.Progress
		status.Message = meta.Message
		status.ErrorKind = meta.ErrorKind
		if status.Error == "" {
			status.Error = meta.Error
		}
	}
	return status
}

func mapJobState(state rivertype.JobState) string {
	switch state {
	case rivertype.JobStateRunning:
		return JobStateStarted
	case rivertype.JobStateCompleted:
		return JobStateFinished
	case rivertype.JobStateCancelled, rivertype.JobStateDiscarded:
		return JobStateFailed
	default:
		return JobStateQueued
	}
}

// expandStates maps caller-facing states back to river's internal ones.
func expandStates(states []string) []string {
	var expanded []string
	for _, state := range states {
		switch state {
		case JobStateQueued:
			expanded = append(expanded,
				string(rivertype.JobStateAvailable),
				string(rivertype.JobStateScheduled),
				string(rivertype.JobStatePending),
				string(rivertype.JobStateRetryable),
			)
		case JobStateStarted:
			expanded = append(expanded, string(rivertype.JobStateRunning))
		case JobStateFinished:
			expanded = append(expanded, string(rivertype.JobStateCompleted))
		case JobStateFailed:
			expanded = append(expanded,
				string(rivertype.JobStateCancelled),
				string(rivertype.JobStateDiscarded),
			)
		default:
			expanded = append(expanded, state)
		}
	}
	return expanded
}

func isTerminal(state rivertype.JobState) bool {
	switch state {
	case rivertype.JobStateCompleted, rivertype.JobStateCancelled, rivertype.JobStateDiscarded:
		return true
	default:
		return false
	}
}
