// Package search builds and executes structured issue queries. Queries are
// a fixed set of predicate shapes combined only by AND, always sorted
// ascending by issue key, and always validated before execution.
package search

import (
	"time"

	"github.com/relenghq/releng/internal/tracker/domain"
)

// Builder assembles a query clause by clause. The zero value is usable via
// NewQuery; Build returns an immutable domain.Query.
type Builder struct {
	clauses []domain.Clause
}

// NewQuery starts an empty query.
func NewQuery() *Builder {
	return &Builder{}
}

// Project restricts the query to one project by its opaque id.
func (b *Builder) Project(projectID int64) *Builder {
	b.clauses = append(b.clauses, domain.Clause{Kind: domain.ClauseProject, ProjectID: projectID})
	return b
}

// FixVersion restricts the query to issues whose fix version is any of the
// given versions.
func (b *Builder) FixVersion(versionIDs ...int64) *Builder {
	b.clauses = append(b.clauses, domain.Clause{Kind: domain.ClauseFixVersion, VersionIDs: versionIDs})
	return b
}

// IssueType restricts the query to one issue type by id.
func (b *Builder) IssueType(typeID int64) *Builder {
	b.clauses = append(b.clauses, domain.Clause{Kind: domain.ClauseIssueType, IssueTypeID: typeID})
	return b
}

// Resolution restricts the query to the fixed Done/Unresolved
// classification.
func (b *Builder) Resolution(r domain.Resolution) *Builder {
	b.clauses = append(b.clauses, domain.Clause{Kind: domain.ClauseResolution, Resolution: r})
	return b
}

// Released is Resolution mapped from the released flag: Done when released,
// Unresolved otherwise.
func (b *Builder) Released(released bool) *Builder {
	return b.Resolution(domain.ForReleased(released))
}

// CustomField matches a single custom field's value: equality when exact,
// substring otherwise. Substring is the default callers use when no mode is
// specified.
func (b *Builder) CustomField(fieldID int64, value string, exact bool) *Builder {
	b.clauses = append(b.clauses, domain.Clause{
		Kind: domain.ClauseCustomField, FieldID: fieldID, Value: value, Exact: exact,
	})
	return b
}

// CustomFieldVersions matches issues whose version-picker custom field
// contains any of the given versions.
func (b *Builder) CustomFieldVersions(fieldID int64, versionIDs ...int64) *Builder {
	b.clauses = append(b.clauses, domain.Clause{
		Kind: domain.ClauseFieldVersion, FieldID: fieldID, VersionIDs: versionIDs,
	})
	return b
}

// UpdatedAfter adds a lower bound on the issue's last-updated time.
func (b *Builder) UpdatedAfter(after time.Time) *Builder {
	b.clauses = append(b.clauses, domain.Clause{Kind: domain.ClauseUpdatedAfter, After: after})
	return b
}

// Build returns the query. The canonical ascending issue-key sort is part
// of every query and is not configurable.
func (b *Builder) Build() domain.Query {
	clauses := make([]domain.Clause, len(b.clauses))
	copy(clauses, b.clauses)
	return domain.Query{Clauses: clauses}
}
