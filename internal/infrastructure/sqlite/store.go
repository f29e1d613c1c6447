package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// Store implements every tracker application port over SQLite. Field-handle
// lookups are cached; the cache is flushed on custom-field writes so the
// store stays authoritative.
type Store struct {
	db         *sql.DB
	fieldCache *cache.Cache
}

var (
	_ application.ProjectReader  = (*Store)(nil)
	_ application.TypeReader     = (*Store)(nil)
	_ application.VersionStore   = (*Store)(nil)
	_ application.FieldStore     = (*Store)(nil)
	_ application.IssueReader    = (*Store)(nil)
	_ application.SearchEngine   = (*Store)(nil)
	_ application.AttachmentSink = (*Store)(nil)
)

// NewStore creates a store over an open connection. The connection is owned
// by the caller.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		fieldCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// ---------------------------------------------------------------------------
// application.ProjectReader / TypeReader
// ---------------------------------------------------------------------------

// ProjectByKey implements application.ProjectReader. The key matches
// case-insensitively.
func (s *Store) ProjectByKey(key string) (*domain.Project, error) {
	var p domain.Project
	err := s.db.QueryRow(`SELECT id, key FROM projects WHERE key = ?`, key).Scan(&p.ID, &p.Key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ProjectNotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project by key: %w", err)
	}
	return &p, nil
}

// IssueTypeByName implements application.TypeReader.
func (s *Store) IssueTypeByName(name string) (*domain.IssueType, error) {
	var t domain.IssueType
	err := s.db.QueryRow(`SELECT id, name FROM issue_types WHERE name = ?`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.IssueTypeNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find issue type: %w", err)
	}
	return &t, nil
}

// IssueLinkTypeByName implements application.TypeReader.
func (s *Store) IssueLinkTypeByName(name string) (*domain.IssueLinkType, error) {
	var t domain.IssueLinkType
	err := s.db.QueryRow(`SELECT id, name FROM issue_link_types WHERE name = ?`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.IssueLinkTypeNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find issue link type: %w", err)
	}
	return &t, nil
}

// ---------------------------------------------------------------------------
// application.VersionStore
// ---------------------------------------------------------------------------

func (s *Store) validateDraft(draft domain.VersionDraft, forUpdate bool) (domain.ValidationResult, error) {
	result := domain.ValidationResult{Draft: draft}
	result.Draft.Name = strings.TrimSpace(draft.Name)

	if result.Draft.Name == "" {
		result.Errors = append(result.Errors, "version name must not be empty")
	}

	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM projects WHERE id = ?)`, draft.ProjectID).Scan(&exists)
	if err != nil {
		return result, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		result.Errors = append(result.Errors, fmt.Sprintf("project %d does not exist", draft.ProjectID))
	}

	if forUpdate {
		err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM versions WHERE id = ?)`, draft.BaseID).Scan(&exists)
		if err != nil {
			return result, fmt.Errorf("failed to check version: %w", err)
		}
		if !exists {
			result.Errors = append(result.Errors, fmt.Sprintf("version %d does not exist", draft.BaseID))
		}
	}

	err = s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM versions WHERE project_id = ? AND name = ? AND id <> ?)`,
		draft.ProjectID, result.Draft.Name, draft.BaseID,
	).Scan(&exists)
	if err != nil {
		return result, fmt.Errorf("failed to check version name: %w", err)
	}
	if exists {
		result.Errors = append(result.Errors, fmt.Sprintf("a version named %q already exists in the project", result.Draft.Name))
	}
	return result, nil
}

// ValidateCreate implements application.VersionStore.
func (s *Store) ValidateCreate(_ domain.User, draft domain.VersionDraft) (domain.ValidationResult, error) {
	return s.validateDraft(draft, false)
}

// Create implements application.VersionStore.
func (s *Store) Create(_ domain.User, validated domain.ValidationResult) (*domain.Version, error) {
	if !validated.Valid() {
		return nil, fmt.Errorf("draft is not valid: %s", validated.JoinedErrors())
	}
	d := validated.Draft
	res, err := s.db.Exec(
		`INSERT INTO versions (guid, project_id, name, description, release_date) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), d.ProjectID, d.Name, d.Description, releaseDateValue(d.ReleaseDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.versionByID(id)
}

// ValidateUpdate implements application.VersionStore.
func (s *Store) ValidateUpdate(_ domain.User, draft domain.VersionDraft) (domain.ValidationResult, error) {
	return s.validateDraft(draft, true)
}

// Update implements application.VersionStore.
func (s *Store) Update(_ domain.User, validated domain.ValidationResult) (*domain.Version, error) {
	if !validated.Valid() {
		return nil, fmt.Errorf("draft is not valid: %s", validated.JoinedErrors())
	}
	d := validated.Draft
	res, err := s.db.Exec(
		`UPDATE versions SET name = ?, description = ?, release_date = ? WHERE id = ?`,
		d.Name, d.Description, releaseDateValue(d.ReleaseDate), d.BaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("version %d does not exist", d.BaseID)
	}
	return s.versionByID(d.BaseID)
}

func (s *Store) versionByID(id int64) (*domain.Version, error) {
	var m versionModel
	err := s.db.QueryRow(
		`SELECT id, guid, project_id, name, description, release_date, released FROM versions WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.GUID, &m.ProjectID, &m.Name, &m.Description, &m.ReleaseDate, &m.Released)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("version %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load version: %w", err)
	}
	v := m.toDomain()
	return &v, nil
}

// VersionByProjectAndName implements application.VersionStore. A missing
// version is reported through the result's error messages, not a Go error.
func (s *Store) VersionByProjectAndName(_ domain.User, project domain.Project, name string) (domain.VersionResult, error) {
	result := domain.VersionResult{}
	var m versionModel
	err := s.db.QueryRow(
		`SELECT id, guid, project_id, name, description, release_date, released
		 FROM versions WHERE project_id = ? AND name = ?`,
		project.ID, name,
	).Scan(&m.ID, &m.GUID, &m.ProjectID, &m.Name, &m.Description, &m.ReleaseDate, &m.Released)
	if errors.Is(err, sql.ErrNoRows) {
		result.Errors = append(result.Errors, fmt.Sprintf("version %q not found in project %q", name, project.Key))
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to find version by name: %w", err)
	}
	v := m.toDomain()
	result.Version = &v
	return result, nil
}

// DeleteAndSwap implements application.VersionStore. The whole plan runs in
// one transaction: validation errors roll everything back, and a version
// that survives validation is removed together with all redirections.
// Picker references the plan does not cover are dropped with the version.
func (s *Store) DeleteAndSwap(_ domain.User, plan domain.SwapPlan) (domain.ServiceResult, error) {
	result := domain.ServiceResult{}

	tx, err := s.db.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	versionExists := func(id int64) (bool, error) {
		var ok bool
		err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM versions WHERE id = ?)`, id).Scan(&ok)
		return ok, err
	}

	ok, err := versionExists(plan.DeletingID)
	if err != nil {
		return result, fmt.Errorf("failed to check version: %w", err)
	}
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("version %d does not exist", plan.DeletingID))
	}
	for _, target := range []int64{plan.AffectedToID, plan.FixToID} {
		ok, err := versionExists(target)
		if err != nil {
			return result, fmt.Errorf("failed to check replacement version: %w", err)
		}
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("replacement version %d does not exist", target))
		}
	}
	if plan.DeletingID == plan.FixToID || plan.DeletingID == plan.AffectedToID {
		result.Errors = append(result.Errors, "replacement version must differ from the deleted version")
	}
	for _, move := range plan.FieldMoves {
		var ok bool
		err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM custom_fields WHERE id = ?)`, move.FieldID).Scan(&ok)
		if err != nil {
			return result, fmt.Errorf("failed to check custom field: %w", err)
		}
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("custom field %d does not exist", move.FieldID))
		}
	}
	if result.HasErrors() {
		return result, nil
	}

	// UPDATE OR IGNORE redirects each reference; rows that would collide
	// with an existing reference to the target stay behind and are swept by
	// the DELETE, which is exactly the merge-and-dedup the swap needs.
	steps := []struct {
		query string
		args  []any
	}{
		{`UPDATE OR IGNORE issue_fix_versions SET version_id = ? WHERE version_id = ?`, []any{plan.FixToID, plan.DeletingID}},
		{`DELETE FROM issue_fix_versions WHERE version_id = ?`, []any{plan.DeletingID}},
		{`UPDATE OR IGNORE issue_affected_versions SET version_id = ? WHERE version_id = ?`, []any{plan.AffectedToID, plan.DeletingID}},
		{`DELETE FROM issue_affected_versions WHERE version_id = ?`, []any{plan.DeletingID}},
	}
	for _, move := range plan.FieldMoves {
		steps = append(steps,
			struct {
				query string
				args  []any
			}{`UPDATE OR IGNORE issue_field_versions SET version_id = ? WHERE field_id = ? AND version_id = ?`,
				[]any{move.ToVersionID, move.FieldID, plan.DeletingID}},
		)
	}
	steps = append(steps,
		struct {
			query string
			args  []any
		}{`DELETE FROM issue_field_versions WHERE version_id = ?`, []any{plan.DeletingID}},
		struct {
			query string
			args  []any
		}{`DELETE FROM versions WHERE id = ?`, []any{plan.DeletingID}},
	)

	for _, step := range steps {
		if _, err := tx.Exec(step.query, step.args...); err != nil {
			return result, fmt.Errorf("failed to apply version swap: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit version swap: %w", err)
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// application.FieldStore
// ---------------------------------------------------------------------------

// FieldByDisplayName implements application.FieldStore. Exact-name lookups
// are cached; an ambiguous display name is a configuration error, never a
// silent pick.
func (s *Store) FieldByDisplayName(name string) (*domain.FieldHandle, error) {
	if cached, ok := s.fieldCache.Get(name); ok {
		handle := cached.(domain.FieldHandle)
		return &handle, nil
	}

	rows, err := s.db.Query(`SELECT id, name FROM custom_fields WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find custom field: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []domain.FieldHandle
	for rows.Next() {
		var f domain.FieldHandle
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan custom field row: %w", err)
		}
		matches = append(matches, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating custom field rows: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, &domain.FieldNotFoundError{Name: name}
	case 1:
		s.fieldCache.Set(name, matches[0], cache.DefaultExpiration)
		handle := matches[0]
		return &handle, nil
	default:
		return nil, fmt.Errorf("display name %q is ambiguous: %d fields match", name, len(matches))
	}
}

// FieldConfigFor implements application.FieldStore.
func (s *Store) FieldConfigFor(field domain.FieldHandle, projectKey string) (*domain.FieldConfig, error) {
	var config domain.FieldConfig
	err := s.db.QueryRow(
		`SELECT c.id, c.field_id, c.scheme
		 FROM field_configs c
		 JOIN field_config_projects p ON p.config_id = c.id
		 WHERE c.field_id = ? AND p.project_key = ?`,
		field.ID, projectKey,
	).Scan(&config.ID, &config.FieldID, &config.Scheme)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.FieldConfigNotFoundError{FieldName: field.Name, ProjectKey: projectKey}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find field config: %w", err)
	}

	rows, err := s.db.Query(`SELECT project_key FROM field_config_projects WHERE config_id = ?`, config.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load field config projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan field config project: %w", err)
		}
		config.Project = append(config.Project, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating field config projects: %w", err)
	}
	return &config, nil
}

// ---------------------------------------------------------------------------
// application.IssueReader
// ---------------------------------------------------------------------------

const issueColumns = `i.id, i.key, i.project_id, i.type_id, t.name, i.resolution, i.reporter, i.parent_key, i.updated_at`

func scanIssue(row interface{ Scan(...any) error }) (domain.Issue, error) {
	var m issueModel
	err := row.Scan(&m.ID, &m.Key, &m.ProjectID, &m.TypeID, &m.TypeName,
		&m.Resolution, &m.Reporter, &m.ParentKey, &m.UpdatedAt)
	if err != nil {
		return domain.Issue{}, err
	}
	return m.toDomain(), nil
}

// IssueByKey implements application.IssueReader.
func (s *Store) IssueByKey(key string) (*domain.Issue, error) {
	row := s.db.QueryRow(
		`SELECT `+issueColumns+` FROM issues i JOIN issue_types t ON t.id = i.type_id WHERE i.key = ?`, key)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.IssueNotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find issue by key: %w", err)
	}
	return &issue, nil
}

// CustomFieldValue implements application.IssueReader. An absent value
// reads as the empty string.
func (s *Store) CustomFieldValue(issue domain.Issue, field domain.FieldHandle) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM issue_field_values WHERE issue_id = ? AND field_id = ?`,
		issue.ID, field.ID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read custom field value: %w", err)
	}
	return value, nil
}

// CustomFieldVersions implements application.IssueReader.
func (s *Store) CustomFieldVersions(issue domain.Issue, field domain.FieldHandle) ([]domain.Version, error) {
	rows, err := s.db.Query(
		`SELECT v.id, v.guid, v.project_id, v.name, v.description, v.release_date, v.released
		 FROM issue_field_versions fv
		 JOIN versions v ON v.id = fv.version_id
		 WHERE fv.issue_id = ? AND fv.field_id = ?`,
		issue.ID, field.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read custom field versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []domain.Version
	for rows.Next() {
		var m versionModel
		if err := rows.Scan(&m.ID, &m.GUID, &m.ProjectID, &m.Name, &m.Description, &m.ReleaseDate, &m.Released); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		versions = append(versions, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating version rows: %w", err)
	}
	return versions, nil
}

// ---------------------------------------------------------------------------
// application.SearchEngine
// ---------------------------------------------------------------------------

// ValidateQuery implements application.SearchEngine.
func (s *Store) ValidateQuery(_ domain.User, query domain.Query) (domain.MessageSet, error) {
	ms := domain.MessageSet{}
	if query.Empty() {
		ms.Errors = append(ms.Errors, "query has no clauses")
		return ms, nil
	}

	checkVersions := func(ids []int64) error {
		for _, id := range ids {
			var ok bool
			if err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM versions WHERE id = ?)`, id).Scan(&ok); err != nil {
				return err
			}
			if !ok {
				ms.Errors = append(ms.Errors, fmt.Sprintf("unknown version %d", id))
			}
		}
		return nil
	}
	checkField := func(id int64) error {
		var ok bool
		if err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM custom_fields WHERE id = ?)`, id).Scan(&ok); err != nil {
			return err
		}
		if !ok {
			ms.Errors = append(ms.Errors, fmt.Sprintf("unknown custom field %d", id))
		}
		return nil
	}

	bounded := false
	for _, c := range query.Clauses {
		var err error
		switch c.Kind {
		case domain.ClauseProject:
			bounded = true
		case domain.ClauseFixVersion:
			err = checkVersions(c.VersionIDs)
		case domain.ClauseCustomField:
			err = checkField(c.FieldID)
		case domain.ClauseFieldVersion:
			if err = checkField(c.FieldID); err == nil {
				err = checkVersions(c.VersionIDs)
			}
		}
		if err != nil {
			return ms, fmt.Errorf("failed to validate query: %w", err)
		}
	}
	if !bounded {
		ms.Warnings = append(ms.Warnings, "query is not bounded by a project")
	}
	return ms, nil
}

// Search implements application.SearchEngine. Every predicate pushes down
// to SQL; the canonical key sort happens in Go because issue keys order
// naturally, not lexically.
func (s *Store) Search(_ domain.User, query domain.Query) ([]domain.Issue, error) {
	sqlQuery := `SELECT ` + issueColumns + ` FROM issues i JOIN issue_types t ON t.id = i.type_id`
	var where []string
	var args []any

	for _, c := range query.Clauses {
		switch c.Kind {
		case domain.ClauseProject:
			where = append(where, `i.project_id = ?`)
			args = append(args, c.ProjectID)
		case domain.ClauseFixVersion:
			clause, clauseArgs := versionMembership(`issue_fix_versions`, "", c.VersionIDs)
			where = append(where, clause)
			args = append(args, clauseArgs...)
		case domain.ClauseIssueType:
			where = append(where, `i.type_id = ?`)
			args = append(args, c.IssueTypeID)
		case domain.ClauseResolution:
			if c.Resolution == domain.ResolutionDone {
				where = append(where, `i.resolution = ?`)
			} else {
				where = append(where, `i.resolution <> ?`)
			}
			args = append(args, string(domain.ResolutionDone))
		case domain.ClauseCustomField:
			if c.Exact {
				where = append(where, `i.id IN (SELECT issue_id FROM issue_field_values WHERE field_id = ? AND value = ?)`)
				args = append(args, c.FieldID, c.Value)
			} else {
				where = append(where, `i.id IN (SELECT issue_id FROM issue_field_values WHERE field_id = ? AND instr(value, ?) > 0)`)
				args = append(args, c.FieldID, c.Value)
			}
		case domain.ClauseFieldVersion:
			clause, clauseArgs := versionMembership(`issue_field_versions`, `field_id = ? AND `, c.VersionIDs)
			where = append(where, clause)
			if len(clauseArgs) > 0 {
				args = append(args, c.FieldID)
				args = append(args, clauseArgs...)
			}
		case domain.ClauseUpdatedAfter:
			where = append(where, `i.updated_at > ?`)
			args = append(args, c.After.Unix())
		}
	}
	if len(where) > 0 {
		sqlQuery += ` WHERE ` + strings.Join(where, ` AND `)
	}

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issue rows: %w", err)
	}

	domain.SortIssuesByKey(issues)
	return issues, nil
}

// versionMembership renders an "issue has any of these versions" predicate
// against a join table. An empty id list matches nothing.
func versionMembership(table, extra string, ids []int64) (string, []any) {
	if len(ids) == 0 {
		return `0`, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return fmt.Sprintf(`i.id IN (SELECT issue_id FROM %s WHERE %sversion_id IN (%s))`, table, extra, placeholders), args
}

// ---------------------------------------------------------------------------
// application.AttachmentSink
// ---------------------------------------------------------------------------

// CreateAttachment implements application.AttachmentSink.
func (s *Store) CreateAttachment(author domain.User, issue domain.Issue, filename, contentType string, content []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO attachments (guid, issue_id, author, filename, content_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), issue.ID, author.Name, filename, contentType, content, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}
