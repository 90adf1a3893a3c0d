package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/tinywideclouds/go-notification-relay/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

const (
	// ClickAction routes a tap on the notification into the Flutter client.
	ClickAction = "FLUTTER_NOTIFICATION_CLICK"

	defaultSound    = "default"
	androidPriority = "high"
	apnsBadge       = 1
)

// BuildPayload shapes a record into the provider-agnostic payload.
// Keys from the record's data map override the type and click_action entries.
func BuildPayload(rec *notification.Record) *dispatch.Payload {
	typ := rec.Type.OrDefault()
	profile := notification.Classify(rec.Type)

	data := map[string]string{
		"type":         string(typ),
		"click_action": ClickAction,
	}
	for k, v := range rec.Data {
		data[k] = stringify(v)
	}

	return &dispatch.Payload{
		Title: rec.Title,
		Body:  rec.Body,
		Data:  data,
		Android: dispatch.AndroidProfile{
			Priority:         androidPriority,
			ChannelID:        profile.ChannelID,
			Sound:            defaultSound,
			VibrationPattern: profile.VibrationPattern,
		},
		APNS: dispatch.APNSProfile{
			Sound: defaultSound,
			Badge: apnsBadge,
		},
	}
}

// stringify renders a data value as the provider's string-only data map needs it.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
