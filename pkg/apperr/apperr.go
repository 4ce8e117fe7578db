// Package apperr defines the typed error kinds shared by the catalog core.
//
// Every kind is a distinct struct so callers can branch with errors.As:
//
//	var dupe *apperr.DuplicateValueError
//	if errors.As(err, &dupe) {
//	    // uniqueness conflict for dupe.Attribute
//	}
//
// pkg/response maps each kind to an HTTP status; nothing in the core ever
// inspects error strings.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports a schema-shape mismatch. Fields carries
// field-level detail for request payloads; Attribute is set when the
// violation belongs to a single product attribute value.
type ValidationError struct {
	Attribute string
	Fields    map[string]string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("validation failed for attribute %q: %s", e.Attribute, e.Message)
	}
	if e.Message != "" {
		return "validation failed: " + e.Message
	}
	return "validation failed"
}

// Invalid builds a ValidationError for a single attribute rule violation.
func Invalid(attribute, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Attribute: attribute, Message: fmt.Sprintf(format, args...)}
}

// InvalidFields builds a ValidationError carrying a field→message map.
func InvalidFields(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields, Message: "invalid payload"}
}

// CardinalityError reports a scope/locale entry on an attribute whose
// definition forbids it, or a malformed unique-attribute value array.
type CardinalityError struct {
	Attribute string
	Detail    string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("attribute %q: %s", e.Attribute, e.Detail)
}

// LocaleError reports a locale outside an attribute's availableLocales.
type LocaleError struct {
	Attribute string
	Locale    string
}

func (e *LocaleError) Error() string {
	return fmt.Sprintf("attribute %q: locale %q is not available", e.Attribute, e.Locale)
}

// RequiredChannelError reports a missing or empty value for a channel the
// family marks as required.
type RequiredChannelError struct {
	Attribute string
	Channel   string
}

func (e *RequiredChannelError) Error() string {
	return fmt.Sprintf("attribute %q: a non-empty value is required for channel %q", e.Attribute, e.Channel)
}

// DuplicateValueError reports a uniqueness conflict.
type DuplicateValueError struct {
	Attribute string
	Value     string
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("attribute %q: value %q is already taken", e.Attribute, e.Value)
}

// NotFoundError reports a missing attribute/family/profile/job/etc.
type NotFoundError struct {
	Resource string
	Code     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Code)
}

// NotFound is shorthand for &NotFoundError{...}.
func NotFound(resource, code string) *NotFoundError {
	return &NotFoundError{Resource: resource, Code: code}
}

// ConflictError reports a duplicate code or an in-use deletion.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict is shorthand for &ConflictError{...}.
func Conflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// StaleTokenError reports an optimistic-concurrency token mismatch.
// The caller must reload the aggregate and retry.
type StaleTokenError struct {
	Resource string
}

func (e *StaleTokenError) Error() string {
	return fmt.Sprintf("%s was modified concurrently, reload and retry", e.Resource)
}

// AlreadyRunningError reports that the tenant's single job execution slot
// is occupied.
type AlreadyRunningError struct {
	Tenant string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("a job is already running for tenant %q", e.Tenant)
}

// ArtifactError reports a failure while building or reading an export or
// import file. It never escapes job execution; the runner folds it into a
// FAILED job record.
type ArtifactError struct {
	Op  string
	Err error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Op, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries a NotFoundError anywhere in its
// chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err carries a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
