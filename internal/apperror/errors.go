// Package apperror holds the error taxonomy shared by the entitlement engine,
// the services and the HTTP layer. Every error carries its own HTTP status and
// a stable machine-readable code so callers can branch with errors.As.
package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is implemented by every error in this package.
type AppError interface {
	error
	HTTPStatus() int
	ErrorCode() string
}

// Detailed is implemented by errors that expose a structured payload.
type Detailed interface {
	Details() interface{}
}

type NotFoundError struct {
	Resource string
	Key      string
}

func NotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}

func (e *NotFoundError) HTTPStatus() int   { return http.StatusNotFound }
func (e *NotFoundError) ErrorCode() string { return "NOT_FOUND" }

type ValidationError struct {
	Field   string
	Message string
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) HTTPStatus() int   { return http.StatusBadRequest }
func (e *ValidationError) ErrorCode() string { return "VALIDATION_FAILED" }

func (e *ValidationError) Details() interface{} {
	return map[string]string{"field": e.Field}
}

// ConflictError reports a write that would orphan or collide with another record.
type ConflictError struct {
	Resource string
	Key      string
	Reason   string
}

func Conflict(resource, key, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Key: key, Reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s '%s': %s", e.Resource, e.Key, e.Reason)
}

func (e *ConflictError) HTTPStatus() int   { return http.StatusConflict }
func (e *ConflictError) ErrorCode() string { return "CONFLICT" }

// DependencyCycleError is returned when a catalog write would close a loop in
// the upgrade prerequisite graph. Cycle lists the codes in walk order with the
// first code repeated at the end.
type DependencyCycleError struct {
	Cycle []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("upgrade dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

func (e *DependencyCycleError) HTTPStatus() int   { return http.StatusUnprocessableEntity }
func (e *DependencyCycleError) ErrorCode() string { return "DEPENDENCY_CYCLE" }

func (e *DependencyCycleError) Details() interface{} {
	return map[string]interface{}{"cycle": e.Cycle}
}

// DependencyError is returned at purchase time when an included or required
// upgrade is missing or inactive.
type DependencyError struct {
	Missing   []string
	ByUpgrade map[string][]string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("unsatisfied upgrade dependencies: %s", strings.Join(e.Missing, ", "))
}

func (e *DependencyError) HTTPStatus() int   { return http.StatusUnprocessableEntity }
func (e *DependencyError) ErrorCode() string { return "DEPENDENCY_UNSATISFIED" }

func (e *DependencyError) Details() interface{} {
	return map[string]interface{}{"missing": e.Missing, "by_upgrade": e.ByUpgrade}
}

type CouponReason string

const (
	CouponNotFound     CouponReason = "NOT_FOUND"
	CouponInactive     CouponReason = "INACTIVE"
	CouponExpired      CouponReason = "EXPIRED"
	CouponExhausted    CouponReason = "EXHAUSTED"
	CouponPlanMismatch CouponReason = "PLAN_MISMATCH"
)

type CouponInvalidError struct {
	Code   string
	Reason CouponReason
	Detail string
}

func CouponInvalid(code string, reason CouponReason, detail string) *CouponInvalidError {
	return &CouponInvalidError{Code: code, Reason: reason, Detail: detail}
}

func (e *CouponInvalidError) Error() string {
	msg := fmt.Sprintf("coupon '%s' rejected: %s", e.Code, strings.ToLower(string(e.Reason)))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *CouponInvalidError) HTTPStatus() int {
	switch e.Reason {
	case CouponNotFound:
		return http.StatusNotFound
	case CouponExhausted:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (e *CouponInvalidError) ErrorCode() string { return "COUPON_" + string(e.Reason) }

func (e *CouponInvalidError) Details() interface{} {
	return map[string]string{"coupon": e.Code, "reason": string(e.Reason)}
}

// InternalError wraps a persistence failure that happened after every business
// check passed. Its message never leaks the cause.
type InternalError struct {
	Op  string
	Err error
}

func Internal(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) HTTPStatus() int   { return http.StatusInternalServerError }
func (e *InternalError) ErrorCode() string { return "INTERNAL_ERROR" }

// PublicMessage is the text shown to API clients.
func PublicMessage(err AppError) string {
	if _, ok := err.(*InternalError); ok {
		return "internal server error"
	}
	return err.Error()
}
