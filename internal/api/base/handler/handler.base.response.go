// Package basehdl holds the response envelope and request parsing shared by every domain handler.
package basehdl

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	"servicehub/internal/api/middleware"
	"servicehub/internal/common"
	"servicehub/internal/global"
	"servicehub/internal/logger"
	"servicehub/internal/utility"
)

// JSONResponse writes data as JSON with an explicit utf-8 charset.
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	return middleware.JSONResponse(c, statusCode, data)
}

// HandleResponse writes data in the success envelope, or err in the error envelope.
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	return respond(c, common.StatusOK, common.MsgSuccess, data, err)
}

// HandleCreated is HandleResponse with 201.
func HandleCreated(c fiber.Ctx, data interface{}, err error) error {
	return respond(c, common.StatusCreated, common.MsgCreated, data, err)
}

func respond(c fiber.Ctx, status int, message string, data interface{}, err error) error {
	if err != nil {
		var customErr *common.Error
		if !errors.As(err, &customErr) || customErr.StatusCode >= common.StatusInternalServerError {
			logger.WithRequest(c).WithError(err).Error("Request failed")
		}
		return middleware.HandleErrorResponse(c, err)
	}
	return JSONResponse(c, status, fiber.Map{
		"code":    status,
		"message": message,
		"data":    data,
		"status":  "success",
	})
}

// SafeHandlerWrapper runs fn and turns a panic into a 500 response.
func SafeHandlerWrapper(c fiber.Ctx, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithField("stack", string(debug.Stack())).Errorf("Handler panic: %v", r)
			err = HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Unexpected error: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return fn()
}

// ParseRequestBody binds the JSON body into input and validates its struct tags.
func ParseRequestBody(c fiber.Ctx, input interface{}) error {
	if err := c.Bind().Body(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, "Request body is not valid JSON", common.StatusBadRequest, err.Error())
	}
	return ValidateInput(input)
}

// ValidateInput runs the shared validator over input.
func ValidateInput(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			return common.ValidationError("Invalid input data", details)
		}
		return common.ValidationError(err.Error(), nil)
	}
	return nil
}

// ParseObjectIDParam reads a route parameter as an ObjectID.
func ParseObjectIDParam(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	return utility.ParseObjectID(name, c.Params(name))
}

// ParseDateQuery reads an optional YYYY-MM-DD query value.
func ParseDateQuery(c fiber.Ctx, name string) (time.Time, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := utility.ParseDate(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ActorFrom returns the authenticated actor of the request.
func ActorFrom(c fiber.Ctx) (auth.Actor, error) {
	actor, ok := auth.FromFiber(c)
	if !ok {
		return auth.Actor{}, common.ErrUnauthorized
	}
	return actor, nil
}

// OrganizationFrom returns the actor and its tenant as an ObjectID.
func OrganizationFrom(c fiber.Ctx) (auth.Actor, primitive.ObjectID, error) {
	actor, err := ActorFrom(c)
	if err != nil {
		return actor, primitive.NilObjectID, err
	}
	org, err := utility.ParseObjectID("organizationId", actor.OrganizationID)
	if err != nil {
		return actor, primitive.NilObjectID, common.ForbiddenError("No organization in context")
	}
	return actor, org, nil
}
