package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Handlers map these to HTTP status codes.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDirectionNotFound    = errors.New("direction not found")
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrResultNotFound       = errors.New("result not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTicketNotFound       = errors.New("ticket not found")

	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBlocked        = errors.New("user account is blocked")
	ErrDirectionInactive  = errors.New("direction is not active")
	ErrPaymentRequired    = errors.New("payment required for this direction")
	ErrAttemptsExhausted  = errors.New("no test attempts remaining")
	ErrPaymentDecided     = errors.New("payment has already been decided")
	ErrTicketClosed       = errors.New("ticket is closed")
)

// PermissionError indicates the caller is not allowed to perform an action
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError indicates a domain rule was violated
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// ValidationError wraps field validation failures from the validator package
type ValidationError struct {
	Message string
	Errors  interface{}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, errs interface{}) *ValidationError {
	return &ValidationError{Message: message, Errors: errs}
}

// IsNotFound reports whether err is one of the not-found sentinels
func IsNotFound(err error) bool {
	for _, sentinel := range []error{
		ErrUserNotFound, ErrDirectionNotFound, ErrSubjectNotFound,
		ErrQuestionNotFound, ErrResultNotFound, ErrPaymentNotFound,
		ErrNotificationNotFound, ErrTicketNotFound, ErrSessionNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsPermissionError reports whether err is a permission failure
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err carries field validation failures
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsBusinessRuleError reports whether err is a domain rule violation
func IsBusinessRuleError(err error) bool {
	var be *BusinessRuleError
	return errors.As(err, &be)
}
