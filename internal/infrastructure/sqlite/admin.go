package sqlite

import (
	"fmt"
	"time"

	"github.com/relenghq/releng/internal/tracker/domain"
)

// Admin operations populate the store. They back the import command and
// tests; the application ports stay read-heavy and validated.

// CreateProject inserts a project.
func (s *Store) CreateProject(key string) (domain.Project, error) {
	res, err := s.db.Exec(`INSERT INTO projects (key) VALUES (?)`, key)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return domain.Project{ID: id, Key: key}, nil
}

// CreateIssueType inserts an issue type.
func (s *Store) CreateIssueType(name string) (domain.IssueType, error) {
	res, err := s.db.Exec(`INSERT INTO issue_types (name) VALUES (?)`, name)
	if err != nil {
		return domain.IssueType{}, fmt.Errorf("failed to insert issue type: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.IssueType{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return domain.IssueType{ID: id, Name: name}, nil
}

// CreateIssueLinkType inserts an issue-link type.
func (s *Store) CreateIssueLinkType(name string) (domain.IssueLinkType, error) {
	res, err := s.db.Exec(`INSERT INTO issue_link_types (name) VALUES (?)`, name)
	if err != nil {
		return domain.IssueLinkType{}, fmt.Errorf("failed to insert issue link type: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.IssueLinkType{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return domain.IssueLinkType{ID: id, Name: name}, nil
}

// CreateField inserts a custom field and flushes the field-handle cache.
// Duplicate display names are allowed; resolution treats them as a
// configuration error.
func (s *Store) CreateField(name string) (domain.FieldHandle, error) {
	res, err := s.db.Exec(`INSERT INTO custom_fields (name) VALUES (?)`, name)
	if err != nil {
		return domain.FieldHandle{}, fmt.Errorf("failed to insert custom field: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.FieldHandle{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.fieldCache.Flush()
	return domain.FieldHandle{ID: id, Name: name}, nil
}

// CreateFieldConfig inserts a configuration scheme for a field, scoped to
// the given project keys.
func (s *Store) CreateFieldConfig(field domain.FieldHandle, scheme string, projectKeys ...string) (domain.FieldConfig, error) {
	res, err := s.db.Exec(`INSERT INTO field_configs (field_id, scheme) VALUES (?, ?)`, field.ID, scheme)
	if err != nil {
		return domain.FieldConfig{}, fmt.Errorf("failed to insert field config: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.FieldConfig{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	for _, key := range projectKeys {
		if _, err := s.db.Exec(`INSERT INTO field_config_projects (config_id, project_key) VALUES (?, ?)`, id, key); err != nil {
			return domain.FieldConfig{}, fmt.Errorf("failed to insert field config project: %w", err)
		}
	}
	return domain.FieldConfig{ID: id, FieldID: field.ID, Scheme: scheme, Project: projectKeys}, nil
}

// IssueSeed describes an issue to insert.
type IssueSeed struct {
	Key        string
	ProjectID  int64
	TypeID     int64
	Resolution string
	Reporter   string
	ParentKey  string
	UpdatedAt  time.Time
}

// CreateIssue inserts an issue.
func (s *Store) CreateIssue(seed IssueSeed) (domain.Issue, error) {
	updated := seed.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO issues (key, project_id, type_id, resolution, reporter, parent_key, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seed.Key, seed.ProjectID, seed.TypeID, seed.Resolution, seed.Reporter, seed.ParentKey, updated.Unix(),
	)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("failed to insert issue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Issue{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	issue, err := s.issueByID(id)
	if err != nil {
		return domain.Issue{}, err
	}
	return *issue, nil
}

func (s *Store) issueByID(id int64) (*domain.Issue, error) {
	row := s.db.QueryRow(
		`SELECT `+issueColumns+` FROM issues i JOIN issue_types t ON t.id = i.type_id WHERE i.id = ?`, id)
	issue, err := scanIssue(row)
	if err != nil {
		return nil, fmt.Errorf("failed to load issue: %w", err)
	}
	return &issue, nil
}

// SetFixVersions replaces the issue's fix versions.
func (s *Store) SetFixVersions(issue domain.Issue, versionIDs ...int64) error {
	return s.replaceVersionLinks(`issue_fix_versions`, issue.ID, versionIDs)
}

// SetAffectedVersions replaces the issue's affected versions.
func (s *Store) SetAffectedVersions(issue domain.Issue, versionIDs ...int64) error {
	return s.replaceVersionLinks(`issue_affected_versions`, issue.ID, versionIDs)
}

func (s *Store) replaceVersionLinks(table string, issueID int64, versionIDs []int64) error {
	if _, err := s.db.Exec(`DELETE FROM `+table+` WHERE issue_id = ?`, issueID); err != nil {
		return fmt.Errorf("failed to clear version links: %w", err)
	}
	for _, versionID := range versionIDs {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO `+table+` (issue_id, version_id) VALUES (?, ?)`, issueID, versionID); err != nil {
			return fmt.Errorf("failed to insert version link: %w", err)
		}
	}
	return nil
}

// SetFieldValue sets a scalar custom-field value on an issue.
func (s *Store) SetFieldValue(issue domain.Issue, field domain.FieldHandle, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO issue_field_values (issue_id, field_id, value) VALUES (?, ?, ?)
		 ON CONFLICT (issue_id, field_id) DO UPDATE SET value = excluded.value`,
		issue.ID, field.ID, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set custom field value: %w", err)
	}
	return nil
}

// SetFieldVersions replaces an issue's version-picker custom-field value.
func (s *Store) SetFieldVersions(issue domain.Issue, field domain.FieldHandle, versionIDs ...int64) error {
	if _, err := s.db.Exec(
		`DELETE FROM issue_field_versions WHERE issue_id = ? AND field_id = ?`, issue.ID, field.ID); err != nil {
		return fmt.Errorf("failed to clear custom field versions: %w", err)
	}
	for _, versionID := range versionIDs {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO issue_field_versions (issue_id, field_id, version_id) VALUES (?, ?, ?)`,
			issue.ID, field.ID, versionID); err != nil {
			return fmt.Errorf("failed to insert custom field version: %w", err)
		}
	}
	return nil
}
