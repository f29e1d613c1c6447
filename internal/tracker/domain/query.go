package domain

import (
	"fmt"
	"strings"
	"time"
)

// ClauseKind discriminates the fixed set of predicate shapes a query may
// contain. Clauses always combine by logical AND.
type ClauseKind string

const (
	ClauseProject      ClauseKind = "project"
	ClauseFixVersion   ClauseKind = "fixVersion"
	ClauseIssueType    ClauseKind = "issuetype"
	ClauseResolution   ClauseKind = "resolution"
	ClauseCustomField  ClauseKind = "cf"
	ClauseFieldVersion ClauseKind = "cfVersion"
	ClauseUpdatedAfter ClauseKind = "updated"
)

// Clause is one predicate of a query. Only the fields relevant to Kind are
// set.
type Clause struct {
	Kind ClauseKind `json:"kind"`

	ProjectID   int64      `json:"project_id,omitempty"`
	VersionIDs  []int64    `json:"version_ids,omitempty"`
	IssueTypeID int64      `json:"issue_type_id,omitempty"`
	Resolution  Resolution `json:"resolution,omitempty"`

	// Custom-field predicates. Scalar matches use Value with Exact
	// selecting equality (the default is a substring match); picker
	// membership uses VersionIDs.
	FieldID int64  `json:"field_id,omitempty"`
	Value   string `json:"value,omitempty"`
	Exact   bool   `json:"exact,omitempty"`

	After time.Time `json:"after,omitzero"`
}

// Query is an ordered list of AND-combined clauses. Results are always
// sorted ascending by issue key; the sort is not configurable. A Query is
// immutable once built and must be validated before execution.
type Query struct {
	Clauses []Clause `json:"clauses"`
}

// Empty reports whether the query has no clauses.
func (q Query) Empty() bool { return len(q.Clauses) == 0 }

// String renders the query in a JQL-like form for logging.
func (q Query) String() string {
	parts := make([]string, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		switch c.Kind {
		case ClauseProject:
			parts = append(parts, fmt.Sprintf("project = %d", c.ProjectID))
		case ClauseFixVersion:
			if len(c.VersionIDs) == 1 {
				parts = append(parts, fmt.Sprintf("fixVersion = %d", c.VersionIDs[0]))
			} else {
				ids := make([]string, len(c.VersionIDs))
				for i, id := range c.VersionIDs {
					ids[i] = fmt.Sprintf("%d", id)
				}
				parts = append(parts, fmt.Sprintf("fixVersion in (%s)", strings.Join(ids, ", ")))
			}
		case ClauseIssueType:
			parts = append(parts, fmt.Sprintf("issuetype = %d", c.IssueTypeID))
		case ClauseResolution:
			parts = append(parts, fmt.Sprintf("resolution = %s", c.Resolution))
		case ClauseCustomField:
			op := "~"
			if c.Exact {
				op = "="
			}
			parts = append(parts, fmt.Sprintf("cf[%d] %s %q", c.FieldID, op, c.Value))
		case ClauseFieldVersion:
			ids := make([]string, len(c.VersionIDs))
			for i, id := range c.VersionIDs {
				ids[i] = fmt.Sprintf("%d", id)
			}
			parts = append(parts, fmt.Sprintf("cf[%d] in (%s)", c.FieldID, strings.Join(ids, ", ")))
		case ClauseUpdatedAfter:
			parts = append(parts, fmt.Sprintf("updated > %q", c.After.Format("2006-01-02 15:04")))
		}
	}
	return strings.Join(parts, " AND ") + " ORDER BY key ASC"
}
