package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// Workflow runs the dispatch workflow for one record.
type Workflow interface {
	Dispatch(ctx context.Context, id string, rec *notification.Record) (*dispatch.Result, error)
}

// NewProcessor loads the announced record and hands it to the workflow.
//
// Every workflow outcome is acked, including a failed terminal write: the
// push may already have gone out, so a redelivery could send it twice. The
// processor only returns an error, and so triggers redelivery, when the
// record could not be read.
func NewProcessor(
	records dispatch.RecordStore,
	workflow Workflow,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[notification.CreatedEvent] {

	return func(ctx context.Context, original messagepipeline.Message, event *notification.CreatedEvent) error {
		procLogger := logger.With(
			"notification_id", event.NotificationID,
			"pubsub_msg_id", original.ID,
		)

		rec, err := records.Get(ctx, event.NotificationID)
		if err != nil {
			if errors.Is(err, dispatch.ErrRecordNotFound) {
				procLogger.Warn("Notification record no longer exists; dropping event")
				return nil
			}
			procLogger.Error("Failed to load notification record", "err", err)
			return err
		}

		result, err := workflow.Dispatch(ctx, event.NotificationID, rec)
		switch {
		case err == nil:
			procLogger.Info("Notification dispatched",
				"success_count", result.SuccessCount,
				"failure_count", result.FailureCount,
			)
		case errors.Is(err, dispatch.ErrFinalizeFailed):
			procLogger.Error("Notification left unsent; not retrying", "err", err)
		default:
			var outcome dispatch.Outcome
			if result != nil {
				outcome = result.Outcome
			}
			procLogger.Info("Notification handled without delivery", "outcome", outcome, "reason", err)
		}
		return nil
	}
}
