package domain

import (
	"errors"
	"fmt"
	"strings"
)

// notFound marks the error types that represent a missing tracker object.
type notFound interface {
	notFound()
}

// IsNotFound reports whether err (or anything it wraps) is one of the
// not-found error kinds.
func IsNotFound(err error) bool {
	var nf notFound
	return errors.As(err, &nf)
}

// ProjectNotFoundError indicates no project exists with the given key.
type ProjectNotFoundError struct {
	Key string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project %q not found", e.Key)
}

func (e *ProjectNotFoundError) notFound() {}

// VersionNotFoundError indicates no version with the given name exists in
// the project.
type VersionNotFoundError struct {
	Name       string
	ProjectKey string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found in project %q", e.Name, e.ProjectKey)
}

func (e *VersionNotFoundError) notFound() {}

// IssueNotFoundError indicates no issue exists with the given key.
type IssueNotFoundError struct {
	Key string
}

func (e *IssueNotFoundError) Error() string {
	return fmt.Sprintf("issue %q not found", e.Key)
}

func (e *IssueNotFoundError) notFound() {}

// IssueTypeNotFoundError indicates the store has no issue type with the
// given name. The store must be configured before the operation can succeed.
type IssueTypeNotFoundError struct {
	Name string
}

func (e *IssueTypeNotFoundError) Error() string {
	return fmt.Sprintf("issue type %q not found: configure the tracker instance", e.Name)
}

func (e *IssueTypeNotFoundError) notFound() {}

// IssueLinkTypeNotFoundError indicates the store has no issue-link type with
// the given name.
type IssueLinkTypeNotFoundError struct {
	Name string
}

func (e *IssueLinkTypeNotFoundError) Error() string {
	return fmt.Sprintf("issue link type %q not found: configure the tracker instance", e.Name)
}

func (e *IssueLinkTypeNotFoundError) notFound() {}

// FieldNotFoundError indicates no custom field with the given display name
// exists in the store.
type FieldNotFoundError struct {
	Name string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("custom field %q not found: configure the tracker instance", e.Name)
}

func (e *FieldNotFoundError) notFound() {}

// FieldConfigNotFoundError indicates a custom field has no configuration
// scheme covering the given project.
type FieldConfigNotFoundError struct {
	FieldName  string
	ProjectKey string
}

func (e *FieldConfigNotFoundError) Error() string {
	return fmt.Sprintf("no config for field %q in project %q", e.FieldName, e.ProjectKey)
}

func (e *FieldConfigNotFoundError) notFound() {}

// ValidationError aggregates store-side validation failures for one
// operation into a single human-readable message. Callers always see one
// actionable string, never a partial multi-error structure.
type ValidationError struct {
	Op       string
	Subject  string
	Messages []string
}

// NewValidationError builds a ValidationError for op on subject from the
// underlying validation messages.
func NewValidationError(op, subject string, messages []string) *ValidationError {
	return &ValidationError{Op: op, Subject: subject, Messages: messages}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Op, e.Subject, strings.Join(e.Messages, ", "))
}

// SearchEngineError wraps a search validation or execution failure so
// callers only see this layer's error taxonomy.
type SearchEngineError struct {
	Message string
	Err     error
}

func (e *SearchEngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search engine: %s: %v", e.Message, e.Err)
	}
	return "search engine: " + e.Message
}

func (e *SearchEngineError) Unwrap() error { return e.Err }

// InternalError wraps a non-domain failure (attachment I/O, store faults)
// together with the affected entity key.
type InternalError struct {
	EntityKey string
	Message   string
	Err       error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s (entity %s): %v", e.Message, e.EntityKey, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
