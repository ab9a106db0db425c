package jwt

import (
	"errors"
	"fmt"
	"strings"
)

// Name resolution errors.
var (
	// ErrUnknownType indicates that no type is registered under the name.
	ErrUnknownType = errors.New("unknown token type")

	// ErrUnknownConfiguration indicates that no configuration is registered under the name.
	ErrUnknownConfiguration = errors.New("unknown configuration")

	// ErrNoDefaultConfiguration indicates that no default configuration was designated.
	ErrNoDefaultConfiguration = errors.New("no default configuration")

	// ErrDuplicateName indicates that the name is already registered.
	ErrDuplicateName = errors.New("name already registered")
)

// Token library errors.
var (
	ErrTokenCreation         = errors.New("token creation failed")
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrUnexpectedAlgorithm   = errors.New("token signed with unexpected algorithm")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenNotYetValid      = errors.New("token is not yet valid")
	ErrTokenIssuedInFuture   = errors.New("token was issued in the future")
	ErrTokenInvalidIssuer    = errors.New("token issuer is invalid")
	ErrTokenInvalidAudience  = errors.New("token audience is invalid")
	ErrTokenInvalidSubject   = errors.New("token subject is invalid")
	ErrTokenInvalidID        = errors.New("token id is invalid")
	ErrTokenMissingClaim     = errors.New("required claim is missing")
	ErrBuilderConsumed       = errors.New("builder already signed")
	ErrInvalidClaimName      = errors.New("claim or header name cannot be empty")
	ErrInvalidKeyType        = errors.New("invalid key type for algorithm")
	ErrNoConstraints         = errors.New("no constraints given")
)

// UnknownTypeError is returned when a type name cannot be resolved.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownType, e.Name)
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// UnknownConfigurationError is returned when a configuration name cannot be resolved.
type UnknownConfigurationError struct {
	Name string
}

func (e *UnknownConfigurationError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownConfiguration, e.Name)
}

func (e *UnknownConfigurationError) Unwrap() error {
	return ErrUnknownConfiguration
}

// DuplicateNameError is returned when registering a name twice.
// Kind is "type" or "configuration".
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, ErrDuplicateName)
}

func (e *DuplicateNameError) Unwrap() error {
	return ErrDuplicateName
}

// CreationError wraps a builder or signing failure.
type CreationError struct {
	Type          string
	Configuration string
	Cause         error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create %q token with configuration %q: %v", e.Type, e.Configuration, e.Cause)
}

func (e *CreationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTokenCreation in addition to the wrapped cause.
func (e *CreationError) Is(target error) bool {
	return target == ErrTokenCreation
}

// ParseError wraps a failure to decode a raw token.
type ParseError struct {
	Type          string
	Configuration string
	Cause         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q token with configuration %q: %v", e.Type, e.Configuration, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConstraintViolation names one failed constraint.
type ConstraintViolation struct {
	Constraint Constraint
	Cause      error
}

func (v ConstraintViolation) Error() string {
	return fmt.Sprintf("%s: %v", constraintName(v.Constraint), v.Cause)
}

func (v ConstraintViolation) Unwrap() error {
	return v.Cause
}

// ValidationError lists every constraint a token failed.
type ValidationError struct {
	Type          string
	Configuration string
	Violations    []ConstraintViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}

	prefix := "token validation failed"
	if e.Type != "" {
		prefix = fmt.Sprintf("validate %q token with configuration %q", e.Type, e.Configuration)
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes the violation causes to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations))
	for _, v := range e.Violations {
		errs = append(errs, v.Cause)
	}
	return errs
}

// IsResolutionError reports whether err comes from type or configuration lookup.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrUnknownConfiguration) ||
		errors.Is(err, ErrNoDefaultConfiguration)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsExpiredError reports whether err indicates token expiration.
func IsExpiredError(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
