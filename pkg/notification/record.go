// Package notification contains the public domain models for the relay:
// the notification record written by producers and the event that announces it.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Type classifies a notification. It drives the Android channel and
// vibration pattern chosen for delivery.
type Type string

const (
	TypeCall          Type = "call"
	TypeMessage       Type = "message"
	TypeRideAccepted  Type = "ride_accepted"
	TypeDriverArrived Type = "driver_arrived"
	TypeRideStarted   Type = "ride_started"
	TypeRideCompleted Type = "ride_completed"
	TypeDefault       Type = "default"
)

// OrDefault returns TypeDefault when the type is unset.
func (t Type) OrDefault() Type {
	if t == "" {
		return TypeDefault
	}
	return t
}

// Record is a document in the notifications collection.
// Field names match the documents written by the mobile producers.
type Record struct {
	UserID string                 `firestore:"userId" json:"userId" validate:"required"`
	Type   Type                   `firestore:"type,omitempty" json:"type,omitempty"`
	Title  string                 `firestore:"title" json:"title" validate:"required"`
	Body   string                 `firestore:"body" json:"body" validate:"required"`
	Data   map[string]interface{} `firestore:"data,omitempty" json:"data,omitempty"`

	Sent         bool      `firestore:"sent" json:"sent"`
	SentAt       time.Time `firestore:"sentAt,omitempty" json:"sentAt,omitempty"`
	SuccessCount int       `firestore:"successCount,omitempty" json:"successCount,omitempty"`
	FailureCount int       `firestore:"failureCount,omitempty" json:"failureCount,omitempty"`
	Error        string    `firestore:"error,omitempty" json:"error,omitempty"`

	CreatedAt time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
}

var validate = validator.New()

// Validate checks the fields a record needs before it can be delivered.
// The returned message names every missing field.
func (r *Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var missing []string
		for _, fe := range ve {
			missing = append(missing, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(missing, "; "))
	}
	return nil
}

// CreatedEvent announces that a record was written to the notifications
// collection. It is the Pub/Sub message body consumed by the relay.
type CreatedEvent struct {
	NotificationID string `json:"notificationId"`
}
