package application

import (
	"github.com/relenghq/releng/internal/tracker/domain"
)

// ProjectReader looks up projects.
type ProjectReader interface {
	// ProjectByKey resolves a project by its key, case-insensitively.
	// Returns *domain.ProjectNotFoundError when no project matches.
	ProjectByKey(key string) (*domain.Project, error)
}

// TypeReader looks up issue types and issue-link types by display name,
// case-insensitively.
type TypeReader interface {
	// IssueTypeByName returns *domain.IssueTypeNotFoundError when absent.
	IssueTypeByName(name string) (*domain.IssueType, error)
	// IssueLinkTypeByName returns *domain.IssueLinkTypeNotFoundError when absent.
	IssueLinkTypeByName(name string) (*domain.IssueLinkType, error)
}

// VersionStore provides the version create/update/delete primitives. All
// mutations go through a validate step first; the validated result is what
// gets committed, so the store can normalize the draft during validation.
type VersionStore interface {
	ValidateCreate(user domain.User, draft domain.VersionDraft) (domain.ValidationResult, error)
	Create(user domain.User, validated domain.ValidationResult) (*domain.Version, error)
	ValidateUpdate(user domain.User, draft domain.VersionDraft) (domain.ValidationResult, error)
	Update(user domain.User, validated domain.ValidationResult) (*domain.Version, error)

	// VersionByProjectAndName reports absence through the result's error
	// messages, not through the error return, mirroring the store's own
	// result object. The error return is for store faults only.
	VersionByProjectAndName(user domain.User, project domain.Project, name string) (domain.VersionResult, error)

	// DeleteAndSwap applies a replacement plan atomically: either the
	// version is deleted and every reference redirected, or nothing
	// happens and the result carries the validation errors.
	DeleteAndSwap(user domain.User, plan domain.SwapPlan) (domain.ServiceResult, error)
}

// FieldStore resolves custom fields by display name.
type FieldStore interface {
	// FieldByDisplayName returns *domain.FieldNotFoundError when absent.
	// A duplicate display name is a store configuration error and is
	// surfaced as such, never resolved by picking one.
	FieldByDisplayName(name string) (*domain.FieldHandle, error)

	// FieldConfigFor returns the first configuration scheme of the field
	// whose associated projects include projectKey, or
	// *domain.FieldConfigNotFoundError when none does.
	FieldConfigFor(field domain.FieldHandle, projectKey string) (*domain.FieldConfig, error)
}

// IssueReader reads issues and their custom-field values.
type IssueReader interface {
	// IssueByKey returns *domain.IssueNotFoundError when absent.
	IssueByKey(key string) (*domain.Issue, error)

	// CustomFieldValue reads a scalar custom-field value; empty string when
	// the issue has no value for the field.
	CustomFieldValue(issue domain.Issue, field domain.FieldHandle) (string, error)

	// CustomFieldVersions reads a version-picker custom-field value; an
	// empty slice when the issue has no value for the field.
	CustomFieldVersions(issue domain.Issue, field domain.FieldHandle) ([]domain.Version, error)
}

// SearchEngine validates and executes structured issue queries.
type SearchEngine interface {
	ValidateQuery(user domain.User, query domain.Query) (domain.MessageSet, error)

	// Search runs an unlimited, non-paginated fetch of every matching
	// issue in the query's canonical order.
	Search(user domain.User, query domain.Query) ([]domain.Issue, error)
}

// AttachmentSink stores attachment payloads for issues.
type AttachmentSink interface {
	CreateAttachment(author domain.User, issue domain.Issue, filename, contentType string, content []byte) error
}
