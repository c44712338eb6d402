package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/tokenchain/internal/events"
	"github.com/spec-kit/tokenchain/internal/repository"
)

// StartLedgerWorker records every stage outcome in the run ledger.
func StartLedgerWorker(dispatcher events.Dispatcher, runs repository.RunRepository, logger *zap.Logger) {
	if dispatcher == nil || runs == nil {
		return
	}

	record := func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.StagePayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		if err := runs.Record(ctx, payload.Result); err != nil {
			logger.Warn("failed to record stage outcome",
				zap.String("run_id", event.RunID),
				zap.String("stage", string(payload.Result.Stage)),
				zap.Error(err),
			)
			return err
		}
		return nil
	}

	dispatcher.Subscribe(events.EventStageCompleted, record)
	dispatcher.Subscribe(events.EventStageFailed, record)
}
