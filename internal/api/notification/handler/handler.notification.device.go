// Package notifhdl lets users register the devices their push notifications go to.
package notifhdl

import (
	"github.com/gofiber/fiber/v3"

	basehdl "servicehub/internal/api/base/handler"
	notifdto "servicehub/internal/api/notification/dto"
	"servicehub/internal/common"
	"servicehub/internal/notification"
)

type DeviceHandler struct {
	devices notification.DeviceStore
}

func NewDeviceHandler(devices notification.DeviceStore) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// HandleRegister stores the token for the calling user, moving it over if another user had it.
func (h *DeviceHandler) HandleRegister(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.ActorFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input notifdto.DeviceRegisterInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		d, err := h.devices.Register(c.Context(), notification.Device{
			User:       actor.ID,
			Token:      input.Token,
			DeviceType: notification.DeviceType(input.DeviceType),
		})
		return basehdl.HandleCreated(c, d, err)
	})
}

// HandleList returns the caller's devices.
func (h *DeviceHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.ActorFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		devices, err := h.devices.FindByUser(c.Context(), actor.ID)
		if devices == nil {
			devices = []notification.Device{}
		}
		return basehdl.HandleResponse(c, devices, err)
	})
}

// HandleUnregister drops a token of the caller.
func (h *DeviceHandler) HandleUnregister(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.ActorFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		token := c.Params("token")
		devices, err := h.devices.FindByUser(c.Context(), actor.ID)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		for _, d := range devices {
			if d.Token == token {
				err = h.devices.RemoveToken(c.Context(), token)
				return basehdl.HandleResponse(c, fiber.Map{"token": token}, err)
			}
		}
		return basehdl.HandleResponse(c, nil, common.NotFoundError("device", token))
	})
}
