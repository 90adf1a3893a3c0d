package notification

const (
	ChannelCalls       = "calls"
	ChannelMessages    = "messages"
	ChannelRideUpdates = "ride_updates"
)

// Profile is the Android presentation chosen for a notification type.
type Profile struct {
	ChannelID string
	// VibrationPattern alternates off/on durations in milliseconds.
	VibrationPattern []int64
}

// Classify maps a notification type to its channel and vibration pattern.
// Unknown and empty types fall back to the ride updates channel with a short pulse.
func Classify(t Type) Profile {
	switch t {
	case TypeCall:
		return Profile{ChannelID: ChannelCalls, VibrationPattern: []int64{0, 1000}}
	case TypeMessage:
		return Profile{ChannelID: ChannelMessages, VibrationPattern: []int64{0, 200, 100, 200}}
	case TypeRideAccepted, TypeDriverArrived, TypeRideStarted, TypeRideCompleted:
		return Profile{ChannelID: ChannelRideUpdates, VibrationPattern: []int64{0, 500}}
	default:
		return Profile{ChannelID: ChannelRideUpdates, VibrationPattern: []int64{0, 300}}
	}
}
