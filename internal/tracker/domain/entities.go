package domain

import "time"

// Project is a tracker project. The key is unique case-insensitively; the
// numeric ID is the store's opaque identity. Immutable once fetched.
type Project struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}

// Version is a release milestone scoped to one project. Name is unique
// within the project (enforced by the store).
type Version struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Released    bool       `json:"released"`
}

// VersionDraft carries the full field set for a pending create or update.
// Updates always populate every field from the existing version first, so a
// reschedule can never drop the name or description.
type VersionDraft struct {
	BaseID      int64 // zero for create
	ProjectID   int64
	Name        string
	Description string
	ReleaseDate *time.Time
}

// IssueType is a tracker-configured issue classification.
type IssueType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IssueLinkType is a tracker-configured link classification.
type IssueLinkType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the acting identity an operation runs on behalf of.
type User struct {
	Name string `json:"name"`
}

// Resolution is the binary resolved/unresolved classification used by
// searches. It is not an arbitrary resolution name.
type Resolution string

const (
	ResolutionDone       Resolution = "Done"
	ResolutionUnresolved Resolution = "Unresolved"
)

// ForReleased maps the released flag onto the fixed two-valued resolution.
func ForReleased(released bool) Resolution {
	if released {
		return ResolutionDone
	}
	return ResolutionUnresolved
}

// Issue is a tracker issue. Custom-field values are read through the issue
// store, not carried on the struct.
type Issue struct {
	ID         int64     `json:"id"`
	Key        string    `json:"key"`
	ProjectID  int64     `json:"project_id"`
	TypeID     int64     `json:"type_id"`
	TypeName   string    `json:"type_name,omitempty"`
	Resolution string    `json:"resolution,omitempty"`
	Reporter   string    `json:"reporter,omitempty"`
	ParentKey  string    `json:"parent_key,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Resolved reports whether the issue counts as Done for search purposes.
func (i Issue) Resolved() bool {
	return i.Resolution == string(ResolutionDone)
}

// FieldHandle is the store-specific identity of a custom field, resolved
// from a display name.
type FieldHandle struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FieldConfig is the configuration scheme entry that applies to a custom
// field within a given project.
type FieldConfig struct {
	ID      int64    `json:"id"`
	FieldID int64    `json:"field_id"`
	Scheme  string   `json:"scheme"`
	Project []string `json:"projects"`
}

// IssueKeys extracts the keys of the given issues, preserving order.
func IssueKeys(issues []Issue) []string {
	keys := make([]string, 0, len(issues))
	for _, issue := range issues {
		keys = append(keys, issue.Key)
	}
	return keys
}

// VersionIDs extracts the IDs of the given versions, preserving order.
func VersionIDs(versions []Version) []int64 {
	ids := make([]int64, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, v.ID)
	}
	return ids
}
