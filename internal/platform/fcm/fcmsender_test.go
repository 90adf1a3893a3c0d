package fcm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/tinywideclouds/go-notification-relay/internal/platform/fcm"
	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
)

// MockClient satisfies the MessagingClient interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.BatchResponse), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPayload() *dispatch.Payload {
	return &dispatch.Payload{
		Title: "Hi",
		Body:  "there",
		Data:  map[string]string{"type": "message", "click_action": "FLUTTER_NOTIFICATION_CLICK"},
		Android: dispatch.AndroidProfile{
			Priority:         "high",
			ChannelID:        "messages",
			Sound:            "default",
			VibrationPattern: []int64{0, 200, 100, 200},
		},
		APNS: dispatch.APNSProfile{Sound: "default", Badge: 1},
	}
}

func TestFCMSend_Lifecycle(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()

	t.Run("Maps payload onto the multicast message", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)
		tokens := []string{"tA", "tB"}

		mockClient.On("SendEachForMulticast", ctx, mock.MatchedBy(func(msg *messaging.MulticastMessage) bool {
			return assert.ObjectsAreEqual(tokens, msg.Tokens) &&
				msg.Notification.Title == "Hi" &&
				msg.Data["type"] == "message" &&
				msg.Android.Priority == "high" &&
				msg.Android.Notification.ChannelID == "messages" &&
				msg.Android.Notification.Sound == "default" &&
				assert.ObjectsAreEqual([]int64{0, 200, 100, 200}, msg.Android.Notification.VibrateTimingMillis) &&
				msg.APNS.Payload.Aps.Alert.Body == "there" &&
				msg.APNS.Payload.Aps.Sound == "default" &&
				*msg.APNS.Payload.Aps.Badge == 1
		})).Return(&messaging.BatchResponse{
			SuccessCount: 2,
			Responses: []*messaging.SendResponse{
				{Success: true, MessageID: "msg-1"},
				{Success: true, MessageID: "msg-2"},
			},
		}, nil)

		result, err := sender.Send(ctx, tokens, testPayload())

		require.NoError(t, err)
		assert.Equal(t, 2, result.SuccessCount)
		assert.Empty(t, result.FailedTokens(false))
		mockClient.AssertExpectations(t)
	})

	t.Run("Per-token failures are aligned with tokens", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)
		tokens := []string{"tA", "tB"}

		mockClient.On("SendEachForMulticast", ctx, mock.Anything).Return(&messaging.BatchResponse{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []*messaging.SendResponse{
				{Success: true, MessageID: "msg-1"},
				{Success: false, Error: errors.New("internal")},
			},
		}, nil)

		result, err := sender.Send(ctx, tokens, testPayload())

		require.NoError(t, err)
		assert.Equal(t, 1, result.FailureCount)
		require.Len(t, result.Responses, 2)
		assert.Equal(t, "tB", result.Responses[1].Token)
		assert.False(t, result.Responses[1].Permanent)
		assert.Equal(t, []string{"tB"}, result.FailedTokens(false))
	})

	t.Run("Transport Failure", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)

		mockClient.On("SendEachForMulticast", ctx, mock.Anything).Return(nil, errors.New("network down"))

		_, err := sender.Send(ctx, []string{"tA"}, testPayload())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "transport failed")
	})

	t.Run("No tokens skips the call", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)

		result, err := sender.Send(ctx, nil, testPayload())

		require.NoError(t, err)
		assert.Zero(t, result.SuccessCount)
		mockClient.AssertNotCalled(t, "SendEachForMulticast", mock.Anything, mock.Anything)
	})

}

// fcmStub answers FCM v1 send calls by token so the real SDK builds its own errors.
type fcmStub struct{}

func (fcmStub) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	code, reply := http.StatusOK, `{"name":"projects/test-project/messages/1"}`
	switch {
	case strings.Contains(string(body), `"tGone"`):
		code, reply = http.StatusNotFound, fcmError("NOT_FOUND", "UNREGISTERED")
	case strings.Contains(string(body), `"tBadPayload"`):
		code, reply = http.StatusBadRequest, fcmError("INVALID_ARGUMENT", "INVALID_ARGUMENT")
	}
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(reply)),
		Request:    req,
	}, nil
}

func fcmError(status, fcmCode string) string {
	return `{"error":{"code":400,"message":"rejected","status":"` + status + `","details":[` +
		`{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"` + fcmCode + `"}]}}`
}

func newStubbedMessaging(t *testing.T) *messaging.Client {
	t.Helper()
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: "test-project"},
		option.WithHTTPClient(&http.Client{Transport: fcmStub{}}))
	require.NoError(t, err)
	client, err := app.Messaging(ctx)
	require.NoError(t, err)
	return client
}

func TestFCMSend_ErrorClassification(t *testing.T) {
	ctx := context.Background()
	sender := fcm.NewSender(newStubbedMessaging(t), newTestLogger())

	result, err := sender.Send(ctx, []string{"tOK", "tGone", "tBadPayload"}, testPayload())

	require.NoError(t, err)
	require.Len(t, result.Responses, 3)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)

	assert.True(t, result.Responses[0].Success)
	assert.True(t, result.Responses[1].Permanent, "unregistered token is dead")
	assert.False(t, result.Responses[2].Permanent, "invalid argument may be the payload, not the token")

	assert.Equal(t, []string{"tGone"}, result.FailedTokens(true))
	assert.ElementsMatch(t, []string{"tGone", "tBadPayload"}, result.FailedTokens(false))
}
