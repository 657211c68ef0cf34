package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"servicehub/config"
	appointmentrouter "servicehub/internal/api/appointment/router"
	basehdl "servicehub/internal/api/base/handler"
	jobrouter "servicehub/internal/api/job/router"
	"servicehub/internal/api/middleware"
	notifrouter "servicehub/internal/api/notification/router"
	orderrouter "servicehub/internal/api/order/router"
	quoterouter "servicehub/internal/api/quote/router"
	apirouter "servicehub/internal/api/router"
	visitrouter "servicehub/internal/api/visit/router"
	"servicehub/internal/common"
	"servicehub/internal/logger"
)

const healthPath = "/api/v1/system/health"

// InitFiberApp builds the Fiber app, its middleware stack and every route.
func InitFiberApp(cfg *config.Configuration, client *mongo.Client, deps apirouter.Collaborators) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:       "ServiceHub API",
		ServerHeader:  "ServiceHub API",
		StrictRouting: false,
		CaseSensitive: true,
		UnescapePath:  true,

		// completion uploads are multipart
		BodyLimit:       20 * 1024 * 1024,
		Concurrency:     256 * 1024,
		ReadBufferSize:  8192,
		WriteBufferSize: 4096,

		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,

		ErrorHandler: errorHandler,
	})

	// 1. Request ID
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))

	// 2. CORS, ahead of everything that could reject a preflight
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Requested-With", middleware.HeaderOrganizationID},
		AllowCredentials: cfg.CORS_AllowCredentials,
		ExposeHeaders:    []string{"Content-Length", "Content-Range", "X-Request-ID"},
		MaxAge:           24 * 60 * 60,
	}))

	// 3. Security headers
	app.Use(func(c fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	// 4. Rate limiting by IP
	log := logger.GetAppLogger()
	if cfg.RateLimit_Enabled && cfg.RateLimit_Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit_Max,
			Expiration: time.Duration(cfg.RateLimit_Window) * time.Second,
			KeyGenerator: func(c fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c fiber.Ctx) error {
				return middleware.JSONResponse(c, fiber.StatusTooManyRequests, fiber.Map{
					"code":    common.ErrCodeBusinessOperation.Code,
					"message": "Too many requests, try again later",
					"status":  "error",
				})
			},
			Next: func(c fiber.Ctx) bool {
				return c.Path() == healthPath || c.Method() == fiber.MethodOptions
			},
		}))
		log.Infof("Rate limiting enabled: %d requests per %d seconds", cfg.RateLimit_Max, cfg.RateLimit_Window)
	} else {
		log.Info("Rate limiting disabled")
	}

	// 5. Recover
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			logger.WithRequest(c).WithField("panic", e).Error("Panic recovered")
		},
	}))

	system := basehdl.NewSystemHandler(client)
	apirouter.RegisterRouteWithMiddleware(app, apirouter.NewRoutePrefix().V1, fiber.MethodGet, "/system/health", nil, system.HandleHealth)

	r := apirouter.NewRouter(app, cfg.JwtSecret, deps)
	err := apirouter.SetupRoutes(app, r,
		visitrouter.Register,
		jobrouter.Register,
		quoterouter.Register,
		orderrouter.Register,
		appointmentrouter.Register,
		notifrouter.Register,
	)
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}
	return app, nil
}

// errorHandler renders errors that escape the handlers, fiber's own included, in the
// standard envelope.
func errorHandler(c fiber.Ctx, err error) error {
	var appErr *common.Error
	if errors.As(err, &appErr) {
		return middleware.HandleErrorResponse(c, err)
	}

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	errorCode := common.ErrCodeInternalServer.Code

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
		switch code {
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			errorCode = common.ErrCodeValidationInput.Code
		case fiber.StatusUnauthorized:
			errorCode = common.ErrCodeAuthToken.Code
		case fiber.StatusForbidden:
			errorCode = common.ErrCodeAuthRole.Code
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			errorCode = common.ErrCodeBusinessOperation.Code
		}
	}

	if code >= fiber.StatusInternalServerError {
		logger.WithRequest(c).WithError(err).Error("Request error")
	}

	return middleware.JSONResponse(c, code, fiber.Map{
		"code":    errorCode,
		"message": message,
		"status":  "error",
	})
}
