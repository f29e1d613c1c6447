package domain

import "strings"

// MessageSet collects the warnings and errors a store-side validation
// produced. Warnings are advisory and logged by callers; any error is fatal
// to the operation that requested validation.
type MessageSet struct {
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// HasErrors reports whether the set contains at least one error.
func (m MessageSet) HasErrors() bool { return len(m.Errors) > 0 }

// HasWarnings reports whether the set contains at least one warning.
func (m MessageSet) HasWarnings() bool { return len(m.Warnings) > 0 }

// JoinedErrors flattens the error messages into one actionable string.
func (m MessageSet) JoinedErrors() string { return strings.Join(m.Errors, ", ") }

// ServiceResult is the outcome of a store-side mutation: valid when the
// store accepted and applied the change.
type ServiceResult struct {
	MessageSet
}

// Valid reports whether the operation was accepted by the store.
func (r ServiceResult) Valid() bool { return !r.HasErrors() }

// ValidationResult is the outcome of validating a version draft. When valid,
// Draft carries the (possibly normalized) draft the store will apply.
type ValidationResult struct {
	MessageSet
	Draft VersionDraft `json:"draft"`
}

// Valid reports whether the draft passed validation.
func (r ValidationResult) Valid() bool { return !r.HasErrors() }

// VersionResult is the outcome of a version lookup: valid when the version
// exists and is readable by the acting user.
type VersionResult struct {
	MessageSet
	Version *Version `json:"version,omitempty"`
}

// Valid reports whether the lookup produced a version.
func (r VersionResult) Valid() bool { return !r.HasErrors() && r.Version != nil }
