package sqlite

import (
	"time"

	"github.com/relenghq/releng/internal/tracker/domain"
)

// versionModel maps a versions row. Release dates are stored as Unix
// seconds; NULL means unscheduled.
type versionModel struct {
	ID          int64
	GUID        string
	ProjectID   int64
	Name        string
	Description string
	ReleaseDate *int64
	Released    bool
}

func (m versionModel) toDomain() domain.Version {
	v := domain.Version{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Name:        m.Name,
		Description: m.Description,
		Released:    m.Released,
	}
	if m.ReleaseDate != nil {
		t := time.Unix(*m.ReleaseDate, 0).UTC()
		v.ReleaseDate = &t
	}
	return v
}

func releaseDateValue(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	unix := t.Unix()
	return &unix
}

// issueModel maps an issues row joined with its type name.
type issueModel struct {
	ID         int64
	Key        string
	ProjectID  int64
	TypeID     int64
	TypeName   string
	Resolution string
	Reporter   string
	ParentKey  string
	UpdatedAt  int64
}

func (m issueModel) toDomain() domain.Issue {
	return domain.Issue{
		ID:         m.ID,
		Key:        m.Key,
		ProjectID:  m.ProjectID,
		TypeID:     m.TypeID,
		TypeName:   m.TypeName,
		Resolution: m.Resolution,
		Reporter:   m.Reporter,
		ParentKey:  m.ParentKey,
		UpdatedAt:  time.Unix(m.UpdatedAt, 0).UTC(),
	}
}
