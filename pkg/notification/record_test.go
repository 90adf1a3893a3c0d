package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

func TestRecord_Validate(t *testing.T) {
	t.Run("Valid record", func(t *testing.T) {
		rec := &notification.Record{UserID: "u1", Title: "Hi", Body: "there"}
		require.NoError(t, rec.Validate())
	})

	t.Run("Missing title", func(t *testing.T) {
		rec := &notification.Record{UserID: "u1", Body: "there"}
		err := rec.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Title")
	})

	t.Run("Reports every missing field", func(t *testing.T) {
		rec := &notification.Record{}
		err := rec.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UserID")
		assert.Contains(t, err.Error(), "Title")
		assert.Contains(t, err.Error(), "Body")
	})
}

func TestType_OrDefault(t *testing.T) {
	assert.Equal(t, notification.TypeDefault, notification.Type("").OrDefault())
	assert.Equal(t, notification.TypeCall, notification.TypeCall.OrDefault())
}
