package common

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP status codes used by handlers and errors.
const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusNoContent = 204

	StatusBadRequest      = 400
	StatusUnauthorized    = 401
	StatusForbidden       = 403
	StatusNotFound        = 404
	StatusConflict        = 409
	StatusTooManyRequests = 429

	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

// Response messages
const (
	MsgSuccess = "Success"
	MsgCreated = "Created"

	MsgBadRequest    = "Invalid request"
	MsgUnauthorized  = "Authentication required"
	MsgForbidden     = "Access denied"
	MsgNotFound      = "Resource not found"
	MsgInternalError = "Internal server error"

	MsgTokenMissing = "Missing authentication token"
	MsgTokenInvalid = "Invalid token"
)

// Kind classifies an error for the boundary layer. Every core error carries one.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindAlreadyCompleted Kind = "ALREADY_COMPLETED"
	KindMalformedRule    Kind = "MALFORMED_RULE"
	KindValidation       Kind = "VALIDATION"
	KindTransaction      Kind = "TRANSACTION"
	KindForbidden        Kind = "FORBIDDEN"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindDatabase         Kind = "DATABASE"
	KindInternal         Kind = "INTERNAL"
)

// ErrorCode is the stable machine-readable error code.
type ErrorCode struct {
	Code        string // e.g. SCH_001
	Category    string // e.g. Scheduling
	SubCategory string // e.g. Rule
	Description string
}

var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{Code: "SYS_001", Category: "System", SubCategory: "Internal", Description: "Internal system error"}

	// Authentication Errors (AUTH_xxx)
	ErrCodeAuthToken = ErrorCode{Code: "AUTH_001", Category: "Authentication", SubCategory: "Token", Description: "Token error"}
	ErrCodeAuthRole  = ErrorCode{Code: "AUTH_003", Category: "Authentication", SubCategory: "Role", Description: "Actor lacks the required role or tenant"}

	// Validation Errors (VAL_xxx)
	ErrCodeValidationInput  = ErrorCode{Code: "VAL_001", Category: "Validation", SubCategory: "Input", Description: "Invalid input data"}
	ErrCodeValidationFormat = ErrorCode{Code: "VAL_002", Category: "Validation", SubCategory: "Format", Description: "Invalid data format"}

	// Database Errors (DB_xxx)
	ErrCodeDatabase            = ErrorCode{Code: "DB", Category: "Database", SubCategory: "General", Description: "Database error"}
	ErrCodeDatabaseConnection  = ErrorCode{Code: "DB_001", Category: "Database", SubCategory: "Connection", Description: "Database connection error"}
	ErrCodeDatabaseQuery       = ErrorCode{Code: "DB_002", Category: "Database", SubCategory: "Query", Description: "Query error"}
	ErrCodeDatabaseTransaction = ErrorCode{Code: "DB_003", Category: "Database", SubCategory: "Transaction", Description: "Transaction rolled back"}

	// Business Logic Errors (BIZ_xxx)
	ErrCodeBusinessState     = ErrorCode{Code: "BIZ_001", Category: "Business", SubCategory: "State", Description: "Invalid business state"}
	ErrCodeBusinessOperation = ErrorCode{Code: "BIZ_002", Category: "Business", SubCategory: "Operation", Description: "Invalid business operation"}

	// Scheduling Errors (SCH_xxx)
	ErrCodeScheduleRule = ErrorCode{Code: "SCH_001", Category: "Scheduling", SubCategory: "Rule", Description: "Recurrence rule is malformed"}
)

// Error is the structured error returned by the services.
type Error struct {
	Kind       Kind
	Code       ErrorCode
	Message    string
	StatusCode int
	Entity     string // entity type of the offending record, if any
	ID         string // offending id, if any
	Details    any
	cause      error
}

// Error returns the message
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on Kind so that errors.Is(err, ErrNotFound) holds for every not-found error,
// whatever entity or id it carries.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds an error with full information.
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Kind:       kindForStatus(statusCode),
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func kindForStatus(statusCode int) Kind {
	switch statusCode {
	case StatusNotFound:
		return KindNotFound
	case StatusBadRequest:
		return KindValidation
	case StatusForbidden:
		return KindForbidden
	case StatusUnauthorized:
		return KindUnauthorized
	}
	return KindInternal
}

// Sentinels for errors.Is. They compare by Kind only.
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Code: ErrCodeDatabaseQuery, Message: MsgNotFound, StatusCode: StatusNotFound}
	ErrAlreadyCompleted = &Error{Kind: KindAlreadyCompleted, Code: ErrCodeBusinessState, Message: "Already completed", StatusCode: StatusConflict}
	ErrMalformedRule    = &Error{Kind: KindMalformedRule, Code: ErrCodeScheduleRule, Message: "Malformed recurrence rule", StatusCode: StatusBadRequest}
	ErrValidation       = &Error{Kind: KindValidation, Code: ErrCodeValidationInput, Message: "Invalid input data", StatusCode: StatusBadRequest}
	ErrTransaction      = &Error{Kind: KindTransaction, Code: ErrCodeDatabaseTransaction, Message: "Transaction failed and was rolled back", StatusCode: StatusInternalServerError}
	ErrForbidden        = &Error{Kind: KindForbidden, Code: ErrCodeAuthRole, Message: MsgForbidden, StatusCode: StatusForbidden}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Code: ErrCodeAuthToken, Message: MsgUnauthorized, StatusCode: StatusUnauthorized}
	ErrDatabase         = &Error{Kind: KindDatabase, Code: ErrCodeDatabase, Message: "Database error", StatusCode: StatusInternalServerError}

	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Invalid data format", StatusBadRequest, nil)
	ErrTokenMissing  = &Error{Kind: KindUnauthorized, Code: ErrCodeAuthToken, Message: MsgTokenMissing, StatusCode: StatusUnauthorized}
	ErrTokenInvalid  = &Error{Kind: KindUnauthorized, Code: ErrCodeAuthToken, Message: MsgTokenInvalid, StatusCode: StatusUnauthorized}
)

// NotFoundError reports a missing entity.
func NotFoundError(entity, id string) error {
	return &Error{
		Kind:       KindNotFound,
		Code:       ErrCodeDatabaseQuery,
		Message:    fmt.Sprintf("%s %s not found", entity, id),
		StatusCode: StatusNotFound,
		Entity:     entity,
		ID:         id,
	}
}

// AlreadyCompletedError reports a completion request on a completed entity.
func AlreadyCompletedError(entity, id string) error {
	return &Error{
		Kind:       KindAlreadyCompleted,
		Code:       ErrCodeBusinessState,
		Message:    fmt.Sprintf("%s %s is already completed", entity, id),
		StatusCode: StatusConflict,
		Entity:     entity,
		ID:         id,
	}
}

// MalformedRuleError reports a recurrence rule missing its anchor or failing to parse.
func MalformedRuleError(rule string, cause error) error {
	return &Error{
		Kind:       KindMalformedRule,
		Code:       ErrCodeScheduleRule,
		Message:    "Malformed recurrence rule",
		StatusCode: StatusBadRequest,
		Details:    rule,
		cause:      cause,
	}
}

// ValidationError reports caller data failing shape constraints.
func ValidationError(message string, details any) error {
	return &Error{
		Kind:       KindValidation,
		Code:       ErrCodeValidationInput,
		Message:    message,
		StatusCode: StatusBadRequest,
		Details:    details,
	}
}

// TransactionError wraps the failure that aborted a transaction.
func TransactionError(cause error) error {
	return &Error{
		Kind:       KindTransaction,
		Code:       ErrCodeDatabaseTransaction,
		Message:    "Transaction failed and was rolled back",
		StatusCode: StatusInternalServerError,
		cause:      cause,
	}
}

// ForbiddenError reports an actor without permission for the mutation.
func ForbiddenError(message string) error {
	return &Error{
		Kind:       KindForbidden,
		Code:       ErrCodeAuthRole,
		Message:    message,
		StatusCode: StatusForbidden,
	}
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ConvertMongoError maps driver errors onto the service taxonomy.
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &Error{Kind: KindDatabase, Code: ErrCodeDatabaseQuery, Message: "Duplicate record", StatusCode: StatusConflict, cause: err}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return &Error{Kind: KindDatabase, Code: ErrCodeDatabaseConnection, Message: "Database unavailable", StatusCode: StatusServiceUnavailable, cause: err}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return &Error{Kind: KindDatabase, Code: ErrCodeDatabaseQuery, Message: "Database command failed", StatusCode: StatusInternalServerError, Details: cmdErr.Name, cause: err}
	}

	return &Error{Kind: KindDatabase, Code: ErrCodeDatabase, Message: "Database error", StatusCode: StatusInternalServerError, cause: err}
}
