package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name            string
		input           notification.Type
		expectedChannel string
		expectedPattern []int64
	}{
		{"Call - long pulse", notification.TypeCall, "calls", []int64{0, 1000}},
		{"Message - double short pulse", notification.TypeMessage, "messages", []int64{0, 200, 100, 200}},
		{"Ride accepted", notification.TypeRideAccepted, "ride_updates", []int64{0, 500}},
		{"Driver arrived", notification.TypeDriverArrived, "ride_updates", []int64{0, 500}},
		{"Ride started", notification.TypeRideStarted, "ride_updates", []int64{0, 500}},
		{"Ride completed", notification.TypeRideCompleted, "ride_updates", []int64{0, 500}},
		{"Default", notification.TypeDefault, "ride_updates", []int64{0, 300}},
		{"Empty", "", "ride_updates", []int64{0, 300}},
		{"Unknown", "unknown_type", "ride_updates", []int64{0, 300}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			profile := notification.Classify(tc.input)
			assert.Equal(t, tc.expectedChannel, profile.ChannelID)
			assert.Equal(t, tc.expectedPattern, profile.VibrationPattern)
		})
	}

	t.Run("Deterministic and not shared", func(t *testing.T) {
		first := notification.Classify(notification.TypeCall)
		first.VibrationPattern[1] = 1

		second := notification.Classify(notification.TypeCall)
		assert.Equal(t, []int64{0, 1000}, second.VibrationPattern)
	})
}
