// Package pipeline adapts "notification created" Pub/Sub messages into
// dispatch workflow invocations.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// CreatedEventTransformer decodes a raw message payload into a notification.CreatedEvent.
// Malformed messages return skip=true so the StreamingService can Nack them to the DLQ.
func CreatedEventTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notification.CreatedEvent, bool, error) {
	var event notification.CreatedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal created event from message %s: %w", msg.ID, err)
	}
	if event.NotificationID == "" {
		return nil, true, fmt.Errorf("created event in message %s has no notificationId", msg.ID)
	}
	return &event, false, nil
}
