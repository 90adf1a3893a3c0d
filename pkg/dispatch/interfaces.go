// Package dispatch defines the contracts between the relay workflows and
// the infrastructure they drive: the push provider and the two Firestore stores.
package dispatch

import (
	"context"
	"time"

	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// Sender delivers one payload to a batch of device tokens in a single call.
type Sender interface {
	// Send returns a per-token result set aligned with the tokens slice.
	// A non-nil error means the batch as a whole could not be submitted.
	Send(ctx context.Context, tokens []string, payload *Payload) (*BatchResult, error)
}

// TokenStore manages the device tokens registered for a user.
type TokenStore interface {
	// Tokens lists every token registered for the user. The list may be empty.
	Tokens(ctx context.Context, userID string) ([]string, error)

	// DeleteTokens removes the given tokens from the user's set in one atomic write.
	DeleteTokens(ctx context.Context, userID string, tokens []string) error

	// RegisterToken adds or refreshes a token for the user.
	RegisterToken(ctx context.Context, userID string, token string) error
}

// RecordStore reads and updates notification records.
type RecordStore interface {
	// Get loads a record. It returns ErrRecordNotFound when the document is gone.
	Get(ctx context.Context, id string) (*notification.Record, error)

	// MarkSent moves the record to its terminal sent state.
	MarkSent(ctx context.Context, id string, completion Completion) error

	// StaleIDs lists the IDs of records created strictly before cutoff.
	StaleIDs(ctx context.Context, cutoff time.Time) ([]string, error)

	// DeleteRecords removes the given records.
	DeleteRecords(ctx context.Context, ids []string) error
}

// Completion describes the terminal update applied to a record.
type Completion struct {
	// Delivered stamps the server completion time and persists the counts.
	Delivered    bool
	SuccessCount int
	FailureCount int
	// Error is recorded verbatim when non-empty.
	Error string
}
