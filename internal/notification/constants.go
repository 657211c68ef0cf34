// Package notification is the push-notification collaborator. Notify is fire-and-forget:
// requests are queued and delivered by a worker pool to every registered device of the
// target users, over the channel matching each device's type.
package notification

// DeviceType selects the delivery channel for a device.
type DeviceType string

const (
	DeviceWeb     DeviceType = "web"
	DeviceIOS     DeviceType = "ios"
	DeviceAndroid DeviceType = "android"
)

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceWeb, DeviceIOS, DeviceAndroid:
		return true
	}
	return false
}

// Payload data keys
const (
	KeyEntity   = "entity"
	KeyEntityID = "entityId"
	KeyStatus   = "status"
	KeyEvent    = "event"
)

// Events
const (
	EventStatusChanged = "status_changed"
	EventCompleted     = "completed"
	EventScheduled     = "scheduled"
)
