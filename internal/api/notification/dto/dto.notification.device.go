// Package notifdto holds request shapes for the device routes.
package notifdto

// DeviceRegisterInput registers the caller's push token.
type DeviceRegisterInput struct {
	Token      string `json:"token" validate:"required,max=4096"`
	DeviceType string `json:"deviceType" validate:"required,oneof=web ios android"`
}
