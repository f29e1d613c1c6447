package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relenghq/releng/internal/tracker/domain"
)

var user = domain.User{Name: "releng-bot"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "releng.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.Store()
}

func mustProject(t *testing.T, s *Store, key string) domain.Project {
	t.Helper()
	p, err := s.CreateProject(key)
	require.NoError(t, err)
	return p
}

func mustVersion(t *testing.T, s *Store, p domain.Project, name string) domain.Version {
	t.Helper()
	validated, err := s.ValidateCreate(user, domain.VersionDraft{ProjectID: p.ID, Name: name})
	require.NoError(t, err)
	require.True(t, validated.Valid(), "draft should validate: %s", validated.JoinedErrors())
	v, err := s.Create(user, validated)
	require.NoError(t, err)
	return *v
}

func mustIssue(t *testing.T, s *Store, seed IssueSeed) domain.Issue {
	t.Helper()
	issue, err := s.CreateIssue(seed)
	require.NoError(t, err)
	return issue
}

func TestProjectByKeyCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	created := mustProject(t, store, "PRJ")

	found, err := store.ProjectByKey("prj")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "PRJ", found.Key)

	_, err = store.ProjectByKey("NOPE")
	assert.True(t, domain.IsNotFound(err))
}

func TestTypeLookups(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateIssueType("Release Request")
	require.NoError(t, err)
	_, err = store.CreateIssueLinkType("Include")
	require.NoError(t, err)

	it, err := store.IssueTypeByName("release request")
	require.NoError(t, err)
	assert.Equal(t, "Release Request", it.Name)

	lt, err := store.IssueLinkTypeByName("INCLUDE")
	require.NoError(t, err)
	assert.Equal(t, "Include", lt.Name)

	_, err = store.IssueTypeByName("Missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestVersionCreateValidateAndRoundTrip(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	validated, err := store.ValidateCreate(user, domain.VersionDraft{
		ProjectID: project.ID, Name: "  24.03.12.01  ", Description: "CRD build", ReleaseDate: &date,
	})
	require.NoError(t, err)
	require.True(t, validated.Valid())
	assert.Equal(t, "24.03.12.01", validated.Draft.Name, "name should be trimmed")

	v, err := store.Create(user, validated)
	require.NoError(t, err)
	assert.Equal(t, "24.03.12.01", v.Name)
	assert.Equal(t, "CRD build", v.Description)
	require.NotNil(t, v.ReleaseDate)
	assert.Equal(t, date.Unix(), v.ReleaseDate.Unix())

	result, err := store.VersionByProjectAndName(user, project, "24.03.12.01")
	require.NoError(t, err)
	require.True(t, result.Valid())
	assert.Equal(t, v.ID, result.Version.ID)
}

func TestVersionValidationAggregatesErrors(t *testing.T) {
	store := newTestStore(t)

	validated, err := store.ValidateCreate(user, domain.VersionDraft{ProjectID: 999, Name: "   "})
	require.NoError(t, err)
	assert.False(t, validated.Valid())
	assert.Len(t, validated.Errors, 2)
}

func TestVersionDuplicateNameRejected(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	mustVersion(t, store, project, "1.0")

	validated, err := store.ValidateCreate(user, domain.VersionDraft{ProjectID: project.ID, Name: "1.0"})
	require.NoError(t, err)
	assert.False(t, validated.Valid())
	assert.Contains(t, validated.JoinedErrors(), "already exists")
}

func TestVersionUpdateRename(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	v := mustVersion(t, store, project, "1.0")

	validated, err := store.ValidateUpdate(user, domain.VersionDraft{
		BaseID: v.ID, ProjectID: project.ID, Name: "1.1", Description: "renamed",
	})
	require.NoError(t, err)
	require.True(t, validated.Valid())

	updated, err := store.Update(user, validated)
	require.NoError(t, err)
	assert.Equal(t, v.ID, updated.ID)
	assert.Equal(t, "1.1", updated.Name)
	assert.Equal(t, "renamed", updated.Description)
}

func TestDeleteAndSwapRedirectsAndDeduplicates(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	doomed := mustVersion(t, store, project, "1.0")
	replacement := mustVersion(t, store, project, "1.1")
	bug, err := store.CreateIssueType("Bug")
	require.NoError(t, err)
	picker, err := store.CreateField("RC Version/s")
	require.NoError(t, err)

	plain := mustIssue(t, store, IssueSeed{Key: "PRJ-1", ProjectID: project.ID, TypeID: bug.ID})
	merged := mustIssue(t, store, IssueSeed{Key: "PRJ-2", ProjectID: project.ID, TypeID: bug.ID})
	require.NoError(t, store.SetFixVersions(plain, doomed.ID))
	require.NoError(t, store.SetAffectedVersions(plain, doomed.ID))
	require.NoError(t, store.SetFieldVersions(plain, picker, doomed.ID))
	// merged already references the replacement, so the swap must dedup.
	require.NoError(t, store.SetFixVersions(merged, doomed.ID, replacement.ID))

	plan := domain.NewSwapPlan(doomed).
		MoveAffectedIssuesTo(replacement).
		MoveFixIssuesTo(replacement).
		MoveCustomFieldValuesTo(picker.ID, replacement).
		Build()
	result, err := store.DeleteAndSwap(user, plan)
	require.NoError(t, err)
	require.True(t, result.Valid(), "swap should succeed: %s", result.JoinedErrors())

	_, err = store.versionByID(doomed.ID)
	assert.Error(t, err, "deleted version should be gone")

	versions, err := store.CustomFieldVersions(plain, domain.FieldHandle{ID: picker.ID, Name: picker.Name})
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, replacement.ID, versions[0].ID)

	issues, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseFixVersion, VersionIDs: []int64{replacement.ID}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-1", "PRJ-2"}, domain.IssueKeys(issues))
}

func TestDeleteAndSwapValidationFailureChangesNothing(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	doomed := mustVersion(t, store, project, "1.0")

	plan := domain.NewSwapPlan(doomed).
		MoveAffectedIssuesTo(doomed).
		MoveFixIssuesTo(doomed).
		Build()
	result, err := store.DeleteAndSwap(user, plan)
	require.NoError(t, err)
	assert.True(t, result.HasErrors())

	_, err = store.versionByID(doomed.ID)
	assert.NoError(t, err, "version should survive a rejected swap")
}

func TestFieldByDisplayName(t *testing.T) {
	store := newTestStore(t)
	created, err := store.CreateField("Highlight")
	require.NoError(t, err)

	handle, err := store.FieldByDisplayName("Highlight")
	require.NoError(t, err)
	assert.Equal(t, created.ID, handle.ID)

	// Second lookup is served from cache.
	again, err := store.FieldByDisplayName("Highlight")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	_, err = store.FieldByDisplayName("Missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestFieldByDisplayNameAmbiguous(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateField("Highlight")
	require.NoError(t, err)
	_, err = store.CreateField("Highlight")
	require.NoError(t, err)

	_, err = store.FieldByDisplayName("Highlight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
	assert.False(t, domain.IsNotFound(err))
}

func TestFieldCacheFlushedOnCreate(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateField("Highlight")
	require.NoError(t, err)

	_, err = store.FieldByDisplayName("Highlight")
	require.NoError(t, err)

	// A second field with the same name makes the cached single match stale.
	_, err = store.CreateField("Highlight")
	require.NoError(t, err)

	_, err = store.FieldByDisplayName("Highlight")
	require.Error(t, err, "lookup after a field write must see the new row")
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestFieldConfigFor(t *testing.T) {
	store := newTestStore(t)
	field, err := store.CreateField("Impacts On")
	require.NoError(t, err)
	_, err = store.CreateFieldConfig(field, "Default Scheme", "PRJ", "OPS")
	require.NoError(t, err)

	config, err := store.FieldConfigFor(field, "PRJ")
	require.NoError(t, err)
	assert.Equal(t, "Default Scheme", config.Scheme)
	assert.ElementsMatch(t, []string{"PRJ", "OPS"}, config.Project)

	_, err = store.FieldConfigFor(field, "OTHER")
	assert.True(t, domain.IsNotFound(err))
}

func TestIssueReads(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	bug, err := store.CreateIssueType("Bug")
	require.NoError(t, err)
	field, err := store.CreateField("Client Release Notes")
	require.NoError(t, err)

	issue := mustIssue(t, store, IssueSeed{
		Key: "PRJ-1", ProjectID: project.ID, TypeID: bug.ID,
		Resolution: string(domain.ResolutionDone), Reporter: "alex", ParentKey: "PRJ-0",
	})
	require.NoError(t, store.SetFieldValue(issue, field, "fixed the parser"))

	loaded, err := store.IssueByKey("PRJ-1")
	require.NoError(t, err)
	assert.Equal(t, "Bug", loaded.TypeName)
	assert.Equal(t, "alex", loaded.Reporter)
	assert.Equal(t, "PRJ-0", loaded.ParentKey)
	assert.True(t, loaded.Resolved())

	value, err := store.CustomFieldValue(*loaded, domain.FieldHandle{ID: field.ID, Name: field.Name})
	require.NoError(t, err)
	assert.Equal(t, "fixed the parser", value)

	// Absent value reads empty, not an error.
	other := mustIssue(t, store, IssueSeed{Key: "PRJ-2", ProjectID: project.ID, TypeID: bug.ID})
	value, err = store.CustomFieldValue(other, domain.FieldHandle{ID: field.ID, Name: field.Name})
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSearchPredicates(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	other := mustProject(t, store, "OPS")
	version := mustVersion(t, store, project, "1.0")
	bug, err := store.CreateIssueType("Bug")
	require.NoError(t, err)
	task, err := store.CreateIssueType("Task")
	require.NoError(t, err)
	field, err := store.CreateField("Customer")
	require.NoError(t, err)

	done := mustIssue(t, store, IssueSeed{
		Key: "PRJ-2", ProjectID: project.ID, TypeID: bug.ID, Resolution: string(domain.ResolutionDone),
	})
	open := mustIssue(t, store, IssueSeed{Key: "PRJ-10", ProjectID: project.ID, TypeID: bug.ID})
	taskIssue := mustIssue(t, store, IssueSeed{
		Key: "PRJ-3", ProjectID: project.ID, TypeID: task.ID, Resolution: string(domain.ResolutionDone),
	})
	foreign := mustIssue(t, store, IssueSeed{
		Key: "OPS-1", ProjectID: other.ID, TypeID: bug.ID, Resolution: string(domain.ResolutionDone),
	})
	_ = foreign
	require.NoError(t, store.SetFixVersions(done, version.ID))
	require.NoError(t, store.SetFixVersions(open, version.ID))
	require.NoError(t, store.SetFixVersions(taskIssue, version.ID))
	require.NoError(t, store.SetFieldValue(done, field, "ACME Corp"))
	require.NoError(t, store.SetFieldValue(open, field, "ACME"))

	released, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseProject, ProjectID: project.ID},
		{Kind: domain.ClauseFixVersion, VersionIDs: []int64{version.ID}},
		{Kind: domain.ClauseResolution, Resolution: domain.ResolutionDone},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-2", "PRJ-3"}, domain.IssueKeys(released))

	typed, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseProject, ProjectID: project.ID},
		{Kind: domain.ClauseIssueType, IssueTypeID: bug.ID},
		{Kind: domain.ClauseResolution, Resolution: domain.ResolutionUnresolved},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-10"}, domain.IssueKeys(typed))

	substring, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseCustomField, FieldID: field.ID, Value: "ACME"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-2", "PRJ-10"}, domain.IssueKeys(substring))

	exact, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseCustomField, FieldID: field.ID, Value: "ACME", Exact: true},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-10"}, domain.IssueKeys(exact))
}

func TestSearchVersionPickerAndUpdatedAfter(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	version := mustVersion(t, store, project, "1.0")
	bug, err := store.CreateIssueType("Bug")
	require.NoError(t, err)
	picker, err := store.CreateField("Versions Approved For Release")
	require.NoError(t, err)

	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := mustIssue(t, store, IssueSeed{
		Key: "PRJ-1", ProjectID: project.ID, TypeID: bug.ID, UpdatedAt: cutoff.Add(time.Hour),
	})
	stale := mustIssue(t, store, IssueSeed{
		Key: "PRJ-2", ProjectID: project.ID, TypeID: bug.ID, UpdatedAt: cutoff.Add(-time.Hour),
	})
	require.NoError(t, store.SetFieldVersions(recent, picker, version.ID))
	require.NoError(t, store.SetFieldVersions(stale, picker, version.ID))

	all, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseProject, ProjectID: project.ID},
		{Kind: domain.ClauseFieldVersion, FieldID: picker.ID, VersionIDs: []int64{version.ID}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-1", "PRJ-2"}, domain.IssueKeys(all))

	bounded, err := store.Search(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseProject, ProjectID: project.ID},
		{Kind: domain.ClauseFieldVersion, FieldID: picker.ID, VersionIDs: []int64{version.ID}},
		{Kind: domain.ClauseUpdatedAfter, After: cutoff},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"PRJ-1"}, domain.IssueKeys(bounded))
}

func TestValidateQueryReportsUnknownReferences(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")

	ms, err := store.ValidateQuery(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseProject, ProjectID: project.ID},
		{Kind: domain.ClauseFixVersion, VersionIDs: []int64{999}},
		{Kind: domain.ClauseCustomField, FieldID: 888},
	}})
	require.NoError(t, err)
	assert.True(t, ms.HasErrors())
	assert.Contains(t, ms.JoinedErrors(), "unknown version 999")
	assert.Contains(t, ms.JoinedErrors(), "unknown custom field 888")

	ms, err = store.ValidateQuery(user, domain.Query{})
	require.NoError(t, err)
	assert.Contains(t, ms.JoinedErrors(), "no clauses")

	ms, err = store.ValidateQuery(user, domain.Query{Clauses: []domain.Clause{
		{Kind: domain.ClauseResolution, Resolution: domain.ResolutionDone},
	}})
	require.NoError(t, err)
	assert.False(t, ms.HasErrors())
	assert.True(t, ms.HasWarnings(), "unbounded query should warn")
}

func TestCreateAttachment(t *testing.T) {
	store := newTestStore(t)
	project := mustProject(t, store, "PRJ")
	bug, err := store.CreateIssueType("Bug")
	require.NoError(t, err)
	issue := mustIssue(t, store, IssueSeed{Key: "PRJ-1", ProjectID: project.ID, TypeID: bug.ID})

	err = store.CreateAttachment(domain.User{Name: "alex"}, issue, "notes.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)

	var author, filename, contentType string
	var content []byte
	err = store.db.QueryRow(
		`SELECT author, filename, content_type, content FROM attachments WHERE issue_id = ?`, issue.ID,
	).Scan(&author, &filename, &contentType, &content)
	require.NoError(t, err)
	assert.Equal(t, "alex", author)
	assert.Equal(t, "notes.txt", filename)
	assert.Equal(t, "text/plain", contentType)
	assert.Equal(t, []byte("hello"), content)
}
