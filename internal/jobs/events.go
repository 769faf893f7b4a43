package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"
)

// EventWriter is satisfied by events.EventProducer. Workers publish pipeline
// outcomes through it; publishing failures are logged, never fatal.
type EventWriter interface {
	Write(ctx context.Context, kind string, body io.Reader) error
}

func emitEvent(ctx context.Context, ew EventWriter, kind string, payload any) {
	if ew == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		zap.S().Named("jobs").Errorw("failed to encode event", "kind", kind, "error", err)
		return
	}
	if err := ew.Write(ctx, kind, bytes.NewReader(data)); err != nil {
		zap.S().Named("jobs").Errorw("failed to publish event", "kind", kind, "error", err)
	}
}
