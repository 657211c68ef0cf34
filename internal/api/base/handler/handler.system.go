package basehdl

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/mongo"

	"servicehub/internal/common"
)

// SystemHandler serves /system routes.
type SystemHandler struct {
	client *mongo.Client
}

func NewSystemHandler(client *mongo.Client) *SystemHandler {
	return &SystemHandler{client: client}
}

// HandleHealth reports API and database reachability.
// @Router /system/health [get]
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	services := fiber.Map{"api": "ok"}
	data := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	}

	switch {
	case h.client == nil:
		data["status"] = "degraded"
		services["database"] = "not_initialized"
	case h.client.Ping(ctx, nil) != nil:
		data["status"] = "degraded"
		services["database"] = "error"
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{
			"code":    common.StatusServiceUnavailable,
			"message": "Service degraded",
			"data":    data,
			"status":  "error",
		})
	default:
		services["database"] = "ok"
	}

	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}
