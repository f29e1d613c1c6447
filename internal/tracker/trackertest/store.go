// Package trackertest provides an in-memory tracker store implementing
// every application port. Tests use it where the SQLite store would be
// overkill; its validation semantics match the real store.
package trackertest

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// Attachment is a stored attachment record.
type Attachment struct {
	IssueKey    string
	Author      string
	Filename    string
	ContentType string
	Content     []byte
}

// Store is the in-memory tracker. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	projects  []domain.Project
	versions  map[int64]*domain.Version
	types     []domain.IssueType
	linkTypes []domain.IssueLinkType
	fields    []domain.FieldHandle
	configs   []domain.FieldConfig
	issues    map[int64]*domain.Issue

	fixVersions      map[int64][]int64
	affectedVersions map[int64][]int64
	scalarValues     map[int64]map[int64]string
	versionValues    map[int64]map[int64][]int64

	attachments []Attachment
	nextID      int64

	// ValidateWarnings is appended to every validation result, so tests
	// can exercise the warnings-never-block paths.
	ValidateWarnings []string
	// AttachErr, when set, fails every CreateAttachment call.
	AttachErr error
	// SearchErr, when set, fails every Search call.
	SearchErr error
}

// Compile-time checks that Store implements the ports.
var (
	_ application.ProjectReader  = (*Store)(nil)
	_ application.TypeReader     = (*Store)(nil)
	_ application.VersionStore   = (*Store)(nil)
	_ application.FieldStore     = (*Store)(nil)
	_ application.IssueReader    = (*Store)(nil)
	_ application.SearchEngine   = (*Store)(nil)
	_ application.AttachmentSink = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		versions:         make(map[int64]*domain.Version),
		issues:           make(map[int64]*domain.Issue),
		fixVersions:      make(map[int64][]int64),
		affectedVersions: make(map[int64][]int64),
		scalarValues:     make(map[int64]map[int64]string),
		versionValues:    make(map[int64]map[int64][]int64),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// ---------------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------------

// AddProject registers a project.
func (s *Store) AddProject(key string) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Project{ID: s.id(), Key: key}
	s.projects = append(s.projects, p)
	return p
}

// AddVersion registers a version in the project.
func (s *Store) AddVersion(project domain.Project, name string) domain.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &domain.Version{ID: s.id(), ProjectID: project.ID, Name: name}
	s.versions[v.ID] = v
	return *v
}

// AddIssueType registers an issue type.
func (s *Store) AddIssueType(name string) domain.IssueType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.IssueType{ID: s.id(), Name: name}
	s.types = append(s.types, t)
	return t
}

// AddIssueLinkType registers an issue-link type.
func (s *Store) AddIssueLinkType(name string) domain.IssueLinkType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.IssueLinkType{ID: s.id(), Name: name}
	s.linkTypes = append(s.linkTypes, t)
	return t
}

// AddField registers a custom field. Duplicate display names are allowed so
// tests can exercise the configuration-error path.
func (s *Store) AddField(name string) domain.FieldHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := domain.FieldHandle{ID: s.id(), Name: name}
	s.fields = append(s.fields, f)
	return f
}

// AddFieldConfig registers a configuration scheme for a field.
func (s *Store) AddFieldConfig(field domain.FieldHandle, scheme string, projectKeys ...string) domain.FieldConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.FieldConfig{ID: s.id(), FieldID: field.ID, Scheme: scheme, Project: projectKeys}
	s.configs = append(s.configs, c)
	return c
}

// AddIssue registers an issue.
func (s *Store) AddIssue(project domain.Project, key string, issueType domain.IssueType, resolution domain.Resolution) domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := ""
	if resolution == domain.ResolutionDone {
		res = string(domain.ResolutionDone)
	}
	i := &domain.Issue{
		ID:         s.id(),
		Key:        key,
		ProjectID:  project.ID,
		TypeID:     issueType.ID,
		TypeName:   issueType.Name,
		Resolution: res,
		UpdatedAt:  time.Now(),
	}
	s.issues[i.ID] = i
	return *i
}

// SetReporter sets an issue's reporter.
func (s *Store) SetReporter(issue domain.Issue, reporter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[issue.ID].Reporter = reporter
}

// SetParent sets an issue's parent key.
func (s *Store) SetParent(issue domain.Issue, parentKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[issue.ID].ParentKey = parentKey
}

// SetUpdatedAt overrides an issue's last-updated time.
func (s *Store) SetUpdatedAt(issue domain.Issue, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[issue.ID].UpdatedAt = at
}

// SetFixVersions sets the issue's fix versions.
func (s *Store) SetFixVersions(issue domain.Issue, versions ...domain.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixVersions[issue.ID] = domain.VersionIDs(versions)
}

// SetAffectedVersions sets the issue's affected versions.
func (s *Store) SetAffectedVersions(issue domain.Issue, versions ...domain.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.affectedVersions[issue.ID] = domain.VersionIDs(versions)
}

// SetScalarValue sets a scalar custom-field value on an issue.
func (s *Store) SetScalarValue(issue domain.Issue, field domain.FieldHandle, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scalarValues[issue.ID] == nil {
		s.scalarValues[issue.ID] = make(map[int64]string)
	}
	s.scalarValues[issue.ID][field.ID] = value
}

// SetVersionValue sets a version-picker custom-field value on an issue.
func (s *Store) SetVersionValue(issue domain.Issue, field domain.FieldHandle, versions ...domain.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versionValues[issue.ID] == nil {
		s.versionValues[issue.ID] = make(map[int64][]int64)
	}
	s.versionValues[issue.ID][field.ID] = domain.VersionIDs(versions)
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// FixVersionIDs returns the issue's current fix-version IDs.
func (s *Store) FixVersionIDs(issue domain.Issue) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.fixVersions[issue.ID]...)
}

// AffectedVersionIDs returns the issue's current affected-version IDs.
func (s *Store) AffectedVersionIDs(issue domain.Issue) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.affectedVersions[issue.ID]...)
}

// VersionValueIDs returns the issue's current picker value for the field.
func (s *Store) VersionValueIDs(issue domain.Issue, field domain.FieldHandle) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.versionValues[issue.ID][field.ID]...)
}

// VersionByID returns the version with the given ID, if it still exists.
func (s *Store) VersionByID(id int64) (domain.Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	if !ok {
		return domain.Version{}, false
	}
	return *v, true
}

// Attachments returns every stored attachment.
func (s *Store) Attachments() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attachment(nil), s.attachments...)
}

// ---------------------------------------------------------------------------
// application.ProjectReader / TypeReader
// ---------------------------------------------------------------------------

// ProjectByKey implements application.ProjectReader.
func (s *Store) ProjectByKey(key string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if strings.EqualFold(p.Key, key) {
			proj := p
			return &proj, nil
		}
	}
	return nil, &domain.ProjectNotFoundError{Key: key}
}

// IssueTypeByName implements application.TypeReader.
func (s *Store) IssueTypeByName(name string) (*domain.IssueType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.types {
		if strings.EqualFold(t.Name, name) {
			found := t
			return &found, nil
		}
	}
	return nil, &domain.IssueTypeNotFoundError{Name: name}
}

// IssueLinkTypeByName implements application.TypeReader.
func (s *Store) IssueLinkTypeByName(name string) (*domain.IssueLinkType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.linkTypes {
		if strings.EqualFold(t.Name, name) {
			found := t
			return &found, nil
		}
	}
	return nil, &domain.IssueLinkTypeNotFoundError{Name: name}
}

// ---------------------------------------------------------------------------
// application.VersionStore
// ---------------------------------------------------------------------------

func (s *Store) validateDraft(draft domain.VersionDraft, forUpdate bool) domain.ValidationResult {
	result := domain.ValidationResult{Draft: draft}
	result.Warnings = append(result.Warnings, s.ValidateWarnings...)
	result.Draft.Name = strings.TrimSpace(draft.Name)

	if result.Draft.Name == "" {
		result.Errors = append(result.Errors, "version name must not be empty")
	}
	projectExists := false
	for _, p := range s.projects {
		if p.ID == draft.ProjectID {
			projectExists = true
		}
	}
	if !projectExists {
		result.Errors = append(result.Errors, fmt.Sprintf("project %d does not exist", draft.ProjectID))
	}
	if forUpdate {
		if _, ok := s.versions[draft.BaseID]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("version %d does not exist", draft.BaseID))
		}
	}
	for _, v := range s.versions {
		if v.ProjectID == draft.ProjectID && v.Name == result.Draft.Name && v.ID != draft.BaseID {
			result.Errors = append(result.Errors, fmt.Sprintf("a version named %q already exists in the project", result.Draft.Name))
		}
	}
	return result
}

// ValidateCreate implements application.VersionStore.
func (s *Store) ValidateCreate(_ domain.User, draft domain.VersionDraft) (domain.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateDraft(draft, false), nil
}

// Create implements application.VersionStore.
func (s *Store) Create(_ domain.User, validated domain.ValidationResult) (*domain.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !validated.Valid() {
		return nil, fmt.Errorf("draft is not valid: %s", validated.JoinedErrors())
	}
	d := validated.Draft
	v := &domain.Version{
		ID:          s.id(),
		ProjectID:   d.ProjectID,
		Name:        d.Name,
		Description: d.Description,
		ReleaseDate: d.ReleaseDate,
	}
	s.versions[v.ID] = v
	out := *v
	return &out, nil
}

// ValidateUpdate implements application.VersionStore.
func (s *Store) ValidateUpdate(_ domain.User, draft domain.VersionDraft) (domain.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateDraft(draft, true), nil
}

// Update implements application.VersionStore.
func (s *Store) Update(_ domain.User, validated domain.ValidationResult) (*domain.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !validated.Valid() {
		return nil, fmt.Errorf("draft is not valid: %s", validated.JoinedErrors())
	}
	d := validated.Draft
	v, ok := s.versions[d.BaseID]
	if !ok {
		return nil, fmt.Errorf("version %d does not exist", d.BaseID)
	}
	v.Name = d.Name
	v.Description = d.Description
	v.ReleaseDate = d.ReleaseDate
	out := *v
	return &out, nil
}

// VersionByProjectAndName implements application.VersionStore.
func (s *Store) VersionByProjectAndName(_ domain.User, project domain.Project, name string) (domain.VersionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := domain.VersionResult{}
	result.Warnings = append(result.Warnings, s.ValidateWarnings...)
	for _, v := range s.versions {
		if v.ProjectID == project.ID && v.Name == name {
			found := *v
			result.Version = &found
			return result, nil
		}
	}
	result.Errors = append(result.Errors, fmt.Sprintf("version %q not found in project %q", name, project.Key))
	return result, nil
}

// DeleteAndSwap implements application.VersionStore.
func (s *Store) DeleteAndSwap(_ domain.User, plan domain.SwapPlan) (domain.ServiceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.ServiceResult{}
	result.Warnings = append(result.Warnings, s.ValidateWarnings...)
	if _, ok := s.versions[plan.DeletingID]; !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("version %d does not exist", plan.DeletingID))
	}
	for _, target := range []int64{plan.AffectedToID, plan.FixToID} {
		if _, ok := s.versions[target]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("replacement version %d does not exist", target))
		}
	}
	if plan.DeletingID == plan.FixToID || plan.DeletingID == plan.AffectedToID {
		result.Errors = append(result.Errors, "replacement version must differ from the deleted version")
	}
	for _, move := range plan.FieldMoves {
		if !s.fieldExists(move.FieldID) {
			result.Errors = append(result.Errors, fmt.Sprintf("custom field %d does not exist", move.FieldID))
		}
	}
	if result.HasErrors() {
		return result, nil
	}

	for issueID := range s.issues {
		s.fixVersions[issueID] = replaceID(s.fixVersions[issueID], plan.DeletingID, plan.FixToID)
		s.affectedVersions[issueID] = replaceID(s.affectedVersions[issueID], plan.DeletingID, plan.AffectedToID)
		for _, move := range plan.FieldMoves {
			if values, ok := s.versionValues[issueID][move.FieldID]; ok {
				s.versionValues[issueID][move.FieldID] = replaceID(values, plan.DeletingID, move.ToVersionID)
			}
		}
	}
	delete(s.versions, plan.DeletingID)
	return result, nil
}

func (s *Store) fieldExists(id int64) bool {
	for _, f := range s.fields {
		if f.ID == id {
			return true
		}
	}
	return false
}

// replaceID swaps from for to in ids, deduplicating when to is already
// present.
func replaceID(ids []int64, from, to int64) []int64 {
	out := ids[:0]
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id == from {
			id = to
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// application.FieldStore
// ---------------------------------------------------------------------------

// FieldByDisplayName implements application.FieldStore.
func (s *Store) FieldByDisplayName(name string) (*domain.FieldHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []domain.FieldHandle
	for _, f := range s.fields {
		if f.Name == name {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &domain.FieldNotFoundError{Name: name}
	case 1:
		found := matches[0]
		return &found, nil
	default:
		return nil, fmt.Errorf("display name %q is ambiguous: %d fields match", name, len(matches))
	}
}

// FieldConfigFor implements application.FieldStore.
func (s *Store) FieldConfigFor(field domain.FieldHandle, projectKey string) (*domain.FieldConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.configs {
		if c.FieldID != field.ID {
			continue
		}
		for _, key := range c.Project {
			if key == projectKey {
				found := c
				return &found, nil
			}
		}
	}
	return nil, &domain.FieldConfigNotFoundError{FieldName: field.Name, ProjectKey: projectKey}
}

// ---------------------------------------------------------------------------
// application.IssueReader
// ---------------------------------------------------------------------------

// IssueByKey implements application.IssueReader.
func (s *Store) IssueByKey(key string) (*domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.issues {
		if i.Key == key {
			found := *i
			return &found, nil
		}
	}
	return nil, &domain.IssueNotFoundError{Key: key}
}

// CustomFieldValue implements application.IssueReader.
func (s *Store) CustomFieldValue(issue domain.Issue, field domain.FieldHandle) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scalarValues[issue.ID][field.ID], nil
}

// CustomFieldVersions implements application.IssueReader.
func (s *Store) CustomFieldVersions(issue domain.Issue, field domain.FieldHandle) ([]domain.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Version
	for _, id := range s.versionValues[issue.ID][field.ID] {
		if v, ok := s.versions[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// application.SearchEngine
// ---------------------------------------------------------------------------

// ValidateQuery implements application.SearchEngine.
func (s *Store) ValidateQuery(_ domain.User, query domain.Query) (domain.MessageSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := domain.MessageSet{}
	ms.Warnings = append(ms.Warnings, s.ValidateWarnings...)
	if query.Empty() {
		ms.Errors = append(ms.Errors, "query has no clauses")
		return ms, nil
	}
	bounded := false
	for _, c := range query.Clauses {
		switch c.Kind {
		case domain.ClauseProject:
			bounded = true
		case domain.ClauseFixVersion:
			for _, id := range c.VersionIDs {
				if _, ok := s.versions[id]; !ok {
					ms.Errors = append(ms.Errors, fmt.Sprintf("unknown version %d", id))
				}
			}
		case domain.ClauseCustomField:
			if !s.fieldExists(c.FieldID) {
				ms.Errors = append(ms.Errors, fmt.Sprintf("unknown custom field %d", c.FieldID))
			}
		case domain.ClauseFieldVersion:
			if !s.fieldExists(c.FieldID) {
				ms.Errors = append(ms.Errors, fmt.Sprintf("unknown custom field %d", c.FieldID))
			}
			for _, id := range c.VersionIDs {
				if _, ok := s.versions[id]; !ok {
					ms.Errors = append(ms.Errors, fmt.Sprintf("unknown version %d", id))
				}
			}
		}
	}
	if !bounded {
		ms.Warnings = append(ms.Warnings, "query is not bounded by a project")
	}
	return ms, nil
}

// Search implements application.SearchEngine.
func (s *Store) Search(_ domain.User, query domain.Query) ([]domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	var out []domain.Issue
	for _, issue := range s.issues {
		if s.matches(*issue, query) {
			out = append(out, *issue)
		}
	}
	domain.SortIssuesByKey(out)
	return out, nil
}

func (s *Store) matches(issue domain.Issue, query domain.Query) bool {
	for _, c := range query.Clauses {
		switch c.Kind {
		case domain.ClauseProject:
			if issue.ProjectID != c.ProjectID {
				return false
			}
		case domain.ClauseFixVersion:
			if !containsAny(s.fixVersions[issue.ID], c.VersionIDs) {
				return false
			}
		case domain.ClauseIssueType:
			if issue.TypeID != c.IssueTypeID {
				return false
			}
		case domain.ClauseResolution:
			if c.Resolution == domain.ResolutionDone && !issue.Resolved() {
				return false
			}
			if c.Resolution == domain.ResolutionUnresolved && issue.Resolved() {
				return false
			}
		case domain.ClauseCustomField:
			value := s.scalarValues[issue.ID][c.FieldID]
			if c.Exact {
				if value != c.Value {
					return false
				}
			} else if !strings.Contains(value, c.Value) {
				return false
			}
		case domain.ClauseFieldVersion:
			if !containsAny(s.versionValues[issue.ID][c.FieldID], c.VersionIDs) {
				return false
			}
		case domain.ClauseUpdatedAfter:
			if !issue.UpdatedAt.After(c.After) {
				return false
			}
		}
	}
	return true
}

func containsAny(have, want []int64) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// application.AttachmentSink
// ---------------------------------------------------------------------------

// CreateAttachment implements application.AttachmentSink.
func (s *Store) CreateAttachment(author domain.User, issue domain.Issue, filename, contentType string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AttachErr != nil {
		return s.AttachErr
	}
	s.attachments = append(s.attachments, Attachment{
		IssueKey:    issue.Key,
		Author:      author.Name,
		Filename:    filename,
		ContentType: contentType,
		Content:     append([]byte(nil), content...),
	})
	return nil
}
