// Package fcm delivers relay payloads through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// *messaging.Client satisfies it; tests substitute a mock.
type MessagingClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Sender struct {
	client MessagingClient
	logger *slog.Logger
}

func NewSender(client MessagingClient, logger *slog.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger.With("component", "FCMSender"),
	}
}

// Send submits one multicast message for all tokens. Per-token failures are
// reported in the result, never as an error.
func (s *Sender) Send(ctx context.Context, tokens []string, payload *dispatch.Payload) (*dispatch.BatchResult, error) {
	if len(tokens) == 0 {
		return &dispatch.BatchResult{}, nil
	}

	br, err := s.client.SendEachForMulticast(ctx, toMulticast(tokens, payload))
	if err != nil {
		return nil, fmt.Errorf("fcm transport failed: %w", err)
	}

	result := &dispatch.BatchResult{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
		Responses:    make([]dispatch.TokenResult, 0, len(br.Responses)),
	}
	for idx, resp := range br.Responses {
		if idx >= len(tokens) {
			break
		}
		tr := dispatch.TokenResult{Token: tokens[idx], Success: resp.Success}
		if !resp.Success {
			tr.Err = resp.Error
			tr.Permanent = isPermanent(resp.Error)
			s.logger.Warn("Failed to send to token", "token_index", idx, "permanent", tr.Permanent, "err", resp.Error)
		}
		result.Responses = append(result.Responses, tr)
	}
	return result, nil
}

// isPermanent reports whether FCM rejected the token itself rather than the attempt.
// INVALID_ARGUMENT is not enough: FCM also returns it for payload problems,
// which would otherwise condemn every token in the batch.
func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	return messaging.IsRegistrationTokenNotRegistered(err)
}

func toMulticast(tokens []string, p *dispatch.Payload) *messaging.MulticastMessage {
	badge := p.APNS.Badge
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   p.Data,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: p.Android.Priority,
			Notification: &messaging.AndroidNotification{
				ChannelID:           p.Android.ChannelID,
				Priority:            messaging.PriorityHigh,
				Sound:               p.Android.Sound,
				VibrateTimingMillis: p.Android.VibrationPattern,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: p.Title,
						Body:  p.Body,
					},
					Sound: p.APNS.Sound,
					Badge: &badge,
				},
			},
		},
	}
}
