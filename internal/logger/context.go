package logger

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for logging values stored on a context.
type ContextKey string

const (
	RequestIDKey      ContextKey = "requestID"
	UserIDKey         ContextKey = "userID"
	OrganizationIDKey ContextKey = "organizationID"
)

// WithContext returns an app logger entry carrying request, user and tenant ids found on ctx.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := GetAppLogger().WithContext(ctx)

	if v := ctx.Value(RequestIDKey); v != nil {
		entry = entry.WithField("request_id", v)
	}
	if v := ctx.Value(UserIDKey); v != nil {
		entry = entry.WithField("user_id", v)
	}
	if v := ctx.Value(OrganizationIDKey); v != nil {
		entry = entry.WithField("organization_id", v)
	}
	return entry
}

// WithRequest returns an entry with method, path, ip and request id from a Fiber request.
func WithRequest(c fiber.Ctx) *logrus.Entry {
	entry := GetAppLogger().WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	})

	requestID, _ := c.Locals("requestid").(string)
	if requestID == "" {
		requestID = c.Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = c.GetRespHeader("X-Request-ID")
	}
	if requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}

// WithModule returns an app logger entry tagged with a module name (visit, job, recurrence, notification).
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}

// WithCollection returns an app logger entry tagged with a Mongo collection name.
func WithCollection(collection string) *logrus.Entry {
	return GetAppLogger().WithField("collection", collection)
}
