package fields

import (
	"fmt"

	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// Values reads custom-field values off issues with the small set of
// conveniences release tooling needs.
type Values struct {
	issues   application.IssueReader
	resolver *Resolver
}

// NewValues creates a value reader over the given issue store.
func NewValues(issues application.IssueReader, resolver *Resolver) *Values {
	return &Values{issues: issues, resolver: resolver}
}

// Scalar reads a logical field's scalar value from an issue, failing with
// FieldNotFoundError when the field is not configured in the store.
func (v *Values) Scalar(issue domain.Issue, field Field) (string, error) {
	handle, err := v.resolver.Resolve(field.Name())
	if err != nil {
		return "", err
	}
	return v.issues.CustomFieldValue(issue, handle)
}

// ScalarByHandle reads a scalar value through an already-resolved handle.
func (v *Values) ScalarByHandle(issue domain.Issue, handle domain.FieldHandle) (string, error) {
	return v.issues.CustomFieldValue(issue, handle)
}

// VersionList reads a version-picker field's value. Issues without a value
// yield an empty list, not an error.
func (v *Values) VersionList(issue domain.Issue, handle domain.FieldHandle) ([]domain.Version, error) {
	versions, err := v.issues.CustomFieldVersions(issue, handle)
	if err != nil {
		return nil, fmt.Errorf("reading version list %q of %s: %w", handle.Name, issue.Key, err)
	}
	if versions == nil {
		return []domain.Version{}, nil
	}
	return versions, nil
}

// ClientReleaseNotes reads the Client Release Notes value. Backporting
// issues carry their notes on the parent issue, so the read follows the
// parent link first.
func (v *Values) ClientReleaseNotes(issue domain.Issue) (string, error) {
	if issue.TypeName == string(domain.TypeBackporting) && issue.ParentKey != "" {
		parent, err := v.issues.IssueByKey(issue.ParentKey)
		if err != nil {
			return "", fmt.Errorf("loading parent of %s: %w", issue.Key, err)
		}
		issue = *parent
	}
	handle, ok, err := v.resolver.ResolveSafe(ClientReleaseNotes.Name())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return v.issues.CustomFieldValue(issue, handle)
}
