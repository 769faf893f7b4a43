package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/shelfwise/cataloger/internal/classifier"
	"github.com/shelfwise/cataloger/internal/config"
	"github.com/shelfwise/cataloger/internal/extractor"
	"github.com/shelfwise/cataloger/internal/similarity"
	"github.com/shelfwise/cataloger/internal/store"
)

type Client struct {
	*river.Client[pgx.Tx]
}

func NewClient(
	ctx context.Context,
	pool *pgxpool.Pool,
	s store.Store,
	textExtractor extractor.TextExtractor,
	itemClassifier classifier.ItemClassifier,
	trainer classifier.Trainer,
	ew EventWriter,
	cfg *config.Config,
) (*Client, error) {
	engine := similarity.NewEngine(
		similarity.NewTokenScorer(),
		similarity.Thresholds{Related: cfg.Pipeline.RelatedThreshold},
	)

	workers := river.NewWorkers()
	river.AddWorker(workers, NewExtractionWorker(s, textExtractor, ew, cfg.Pipeline.MinTextLength))
	river.AddWorker(workers, NewClassificationWorker(s, itemClassifier, engine, ew))
	river.AddWorker(workers, NewRetrainingWorker(s, trainer, ew))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueExtraction:     {MaxWorkers: cfg.Pipeline.ExtractionWorkers},
			QueueClassification: {MaxWorkers: cfg.Pipeline.ClassificationWorkers},
			QueueRetraining:     {MaxWorkers: cfg.Pipeline.RetrainingWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient}, nil
}

func (c *Client) EnqueueExtraction(ctx context.Context, documentID uuid.UUID, source string) (int64, error) {
	result, err := c.Insert(ctx, ExtractionArgs{DocumentID: documentID, Source: source}, nil)
	if err != nil {
		return 0, err
	}
	return result.Job.ID, nil
}

func (c *Client) EnqueueClassification(ctx context.Context, documentID uuid.UUID, source string) (int64, error) {
	result, err := c.Insert(ctx, ClassificationArgs{DocumentID: documentID, Source: source}, nil)
	if err != nil {
		return 0, err
	}
	return result.Job.ID, nil
}

func (c *Client) EnqueueRetraining(ctx context.Context, args RetrainingArgs) (int64, error) {
	result, err := c.Insert(ctx, args, nil)
	if err != nil {
		return 0, err
	}
	return result.Job.ID, nil
}
