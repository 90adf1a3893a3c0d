// Package workflow implements the two relay workflows: dispatching a newly
// created notification record and pruning stale records.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-relay/internal/metrics"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// Dispatcher turns one notification record into a batched push delivery
// and leaves the record in its terminal sent state.
type Dispatcher struct {
	records dispatch.RecordStore
	tokens  dispatch.TokenStore
	sender  dispatch.Sender
	policy  dispatch.PrunePolicy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewDispatcher(
	records dispatch.RecordStore,
	tokens dispatch.TokenStore,
	sender dispatch.Sender,
	policy dispatch.PrunePolicy,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Dispatcher {
	if policy == "" {
		policy = dispatch.PruneAll
	}
	return &Dispatcher{
		records: records,
		tokens:  tokens,
		sender:  sender,
		policy:  policy,
		metrics: m,
		logger:  logger.With("component", "Dispatcher"),
	}
}

// Dispatch runs the delivery workflow for the record stored under id.
//
// The returned error wraps one of the dispatch sentinel errors for every
// path except a successful delivery. Only ErrFinalizeFailed leaves the
// record unsent after it passed validation.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, rec *notification.Record) (*dispatch.Result, error) {
	log := d.logger.With("notification_id", id)

	if rec.Sent {
		log.Info("Notification already sent, skipping")
		return d.finish(&dispatch.Result{Outcome: dispatch.OutcomeAlreadyProcessed}), dispatch.ErrAlreadyProcessed
	}

	if err := rec.Validate(); err != nil {
		log.Error("Missing required fields", "user_id", rec.UserID, "err", err)
		return d.finish(&dispatch.Result{Outcome: dispatch.OutcomeInvalid}), fmt.Errorf("%w: %v", dispatch.ErrValidation, err)
	}

	log = log.With("user_id", rec.UserID)

	result, err := d.deliver(ctx, id, rec, log)
	if err == nil || errors.Is(err, dispatch.ErrNoRecipients) {
		return d.finish(result), err
	}

	// Any failure past validation still ends with the record marked sent.
	log.Error("Error sending notification", "err", err)
	result.Outcome = dispatch.OutcomeFailed
	d.finish(result)

	if markErr := d.records.MarkSent(ctx, id, dispatch.Completion{Error: err.Error()}); markErr != nil {
		log.Error("Failed to record delivery error on notification", "err", markErr)
		return result, fmt.Errorf("%w: %w (after %v)", dispatch.ErrFinalizeFailed, markErr, err)
	}
	return result, fmt.Errorf("%w: %w", dispatch.ErrUnexpectedFailure, err)
}

func (d *Dispatcher) deliver(ctx context.Context, id string, rec *notification.Record, log *slog.Logger) (*dispatch.Result, error) {
	result := &dispatch.Result{}

	tokens, err := d.tokens.Tokens(ctx, rec.UserID)
	if err != nil {
		return result, fmt.Errorf("failed to resolve tokens: %w", err)
	}

	if len(tokens) == 0 {
		log.Info("No tokens found for user")
		if err := d.records.MarkSent(ctx, id, dispatch.Completion{Error: dispatch.NoTokensMessage}); err != nil {
			return result, fmt.Errorf("failed to mark notification without recipients: %w", err)
		}
		result.Outcome = dispatch.OutcomeNoRecipients
		return result, dispatch.ErrNoRecipients
	}
	log.Debug("Resolved device tokens", "count", len(tokens))

	payload := BuildPayload(rec)

	batch, err := d.sender.Send(ctx, tokens, payload)
	if err != nil {
		return result, fmt.Errorf("failed to send notification: %w", err)
	}
	result.SuccessCount = batch.SuccessCount
	result.FailureCount = batch.FailureCount
	d.metrics.Deliveries.WithLabelValues("success").Add(float64(batch.SuccessCount))
	d.metrics.Deliveries.WithLabelValues("failure").Add(float64(batch.FailureCount))
	log.Info("Notification sent", "success_count", batch.SuccessCount, "failure_count", batch.FailureCount)

	if batch.FailureCount > 0 {
		failed := batch.FailedTokens(d.policy == dispatch.PrunePermanent)
		if len(failed) > 0 {
			if err := d.tokens.DeleteTokens(ctx, rec.UserID, failed); err != nil {
				if !errors.Is(err, dispatch.ErrStaleCache) {
					return result, fmt.Errorf("failed to remove invalid tokens: %w", err)
				}
				log.Warn("Invalid tokens removed but token cache not cleared", "err", err)
			}
			result.PrunedTokens = failed
			d.metrics.TokensPruned.Add(float64(len(failed)))
			log.Info("Removed invalid tokens", "count", len(failed), "policy", d.policy)
		}
	}

	err = d.records.MarkSent(ctx, id, dispatch.Completion{
		Delivered:    true,
		SuccessCount: batch.SuccessCount,
		FailureCount: batch.FailureCount,
	})
	if err != nil {
		return result, fmt.Errorf("failed to mark notification sent: %w", err)
	}

	result.Outcome = dispatch.OutcomeDelivered
	return result, nil
}

func (d *Dispatcher) finish(result *dispatch.Result) *dispatch.Result {
	d.metrics.Dispatches.WithLabelValues(string(result.Outcome)).Inc()
	return result
}
