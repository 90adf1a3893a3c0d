package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyProcessed marks a record that was already sent. It is a no-op outcome.
	ErrAlreadyProcessed = errors.New("notification already sent")
	// ErrValidation marks a record missing a required field. The record is left unsent.
	ErrValidation = errors.New("notification failed validation")
	// ErrNoRecipients marks a record whose target has no registered tokens.
	ErrNoRecipients = errors.New("no tokens found")
	// ErrUnexpectedFailure wraps store or provider failures during delivery.
	ErrUnexpectedFailure = errors.New("unexpected delivery failure")
	// ErrFinalizeFailed means the record could not be moved to its terminal state.
	ErrFinalizeFailed = errors.New("failed to finalize notification")
	// ErrRecordNotFound is returned by RecordStore.Get for a missing document.
	ErrRecordNotFound = errors.New("notification record not found")
	// ErrStaleCache means a token write reached the store but a cached copy
	// could not be dropped. The write itself succeeded.
	ErrStaleCache = errors.New("token cache not invalidated")
)

// NoTokensMessage is written to a record's error field when the target has no tokens.
const NoTokensMessage = "No tokens found"

// Payload is the provider-agnostic message built for one notification.
type Payload struct {
	Title   string
	Body    string
	Data    map[string]string
	Android AndroidProfile
	APNS    APNSProfile
}

// AndroidProfile carries the Android-specific presentation hints.
type AndroidProfile struct {
	Priority         string
	ChannelID        string
	Sound            string
	VibrationPattern []int64
}

// APNSProfile carries the Apple-specific presentation hints.
type APNSProfile struct {
	Sound string
	Badge int
}

// TokenResult is the provider's verdict for a single token.
type TokenResult struct {
	Token   string
	Success bool
	// Permanent is set when the provider reports the token as unregistered or malformed.
	Permanent bool
	Err       error
}

// BatchResult aggregates the outcome of one multicast call.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Responses    []TokenResult
}

// FailedTokens returns the tokens that failed, optionally only those
// the provider reported as permanently invalid.
func (b *BatchResult) FailedTokens(permanentOnly bool) []string {
	var failed []string
	for _, r := range b.Responses {
		if r.Success {
			continue
		}
		if permanentOnly && !r.Permanent {
			continue
		}
		failed = append(failed, r.Token)
	}
	return failed
}

// PrunePolicy selects which failed tokens are removed after delivery.
type PrunePolicy string

const (
	// PruneAll removes every token the provider reported as failed.
	PruneAll PrunePolicy = "all"
	// PrunePermanent removes only tokens reported as unregistered or invalid.
	PrunePermanent PrunePolicy = "permanent"
)

// ParsePrunePolicy validates a policy name. Empty means PruneAll.
func ParsePrunePolicy(s string) (PrunePolicy, error) {
	switch PrunePolicy(s) {
	case "", PruneAll:
		return PruneAll, nil
	case PrunePermanent:
		return PrunePermanent, nil
	default:
		return "", fmt.Errorf("unknown prune policy %q (want %q or %q)", s, PruneAll, PrunePermanent)
	}
}

// Outcome is the terminal classification of one dispatch invocation.
type Outcome string

const (
	OutcomeDelivered        Outcome = "delivered"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeInvalid          Outcome = "invalid"
	OutcomeNoRecipients     Outcome = "no_recipients"
	OutcomeFailed           Outcome = "failed"
)

// Result summarizes one dispatch invocation.
type Result struct {
	Outcome      Outcome
	SuccessCount int
	FailureCount int
	PrunedTokens []string
}
