package notification

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// ErrDeviceGone means the token is no longer registered with the push service.
var ErrDeviceGone = errors.New("device token is no longer registered")

// Payload is what the user sees plus routing data for the client app.
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers one payload to one device.
type Sender interface {
	Send(ctx context.Context, d Device, p Payload) error
}

// FCMSender sends through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

func (s *FCMSender) Send(ctx context.Context, d Device, p Payload) error {
	msg, err := BuildMessage(d, p)
	if err != nil {
		return err
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("%w: %v", ErrDeviceGone, err)
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// BuildMessage shapes the FCM message for the device's channel.
func BuildMessage(d Device, p Payload) (*messaging.Message, error) {
	msg := &messaging.Message{Token: d.Token, Data: p.Data}

	switch d.DeviceType {
	case DeviceWeb:
		msg.Webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{Title: p.Title, Body: p.Body},
		}
	case DeviceIOS:
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: p.Title, Body: p.Body},
					Sound: "default",
				},
			},
		}
	case DeviceAndroid:
		msg.Android = &messaging.AndroidConfig{
			Priority:     "high",
			Notification: &messaging.AndroidNotification{Title: p.Title, Body: p.Body},
		}
	default:
		return nil, fmt.Errorf("unknown device type %q", d.DeviceType)
	}
	return msg, nil
}
