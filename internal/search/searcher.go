package search

import (
	"context"
	"time"

	"github.com/relenghq/releng/internal/fields"
	"github.com/relenghq/releng/internal/log"
	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// Searcher exposes the fixed query combinators release tooling uses. Each
// combinator is an assembly of the builder's predicate kinds plus the
// canonical sort; none introduces new predicate semantics.
type Searcher struct {
	exec     *Executor
	resolver *fields.Resolver
}

// NewSearcher wires a searcher over the engine and field resolver.
func NewSearcher(engine application.SearchEngine, resolver *fields.Resolver) *Searcher {
	return &Searcher{exec: NewExecutor(engine), resolver: resolver}
}

// Execute runs an arbitrary built query.
func (s *Searcher) Execute(ctx context.Context, user domain.User, query domain.Query) ([]domain.Issue, error) {
	return s.exec.Execute(ctx, user, query)
}

// FindReleasedIssues returns the Done issues of the project with the given
// fix version.
func (s *Searcher) FindReleasedIssues(ctx context.Context, user domain.User, project domain.Project, version domain.Version) ([]domain.Issue, error) {
	return s.FindReleasedIssuesIn(ctx, user, project, []domain.Version{version})
}

// FindReleasedIssuesIn returns the Done issues of the project whose fix
// version is any of the given versions.
func (s *Searcher) FindReleasedIssuesIn(ctx context.Context, user domain.User, project domain.Project, versions []domain.Version) ([]domain.Issue, error) {
	query := NewQuery().
		Project(project.ID).
		Resolution(domain.ResolutionDone).
		FixVersion(domain.VersionIDs(versions)...).
		Build()
	return s.exec.Execute(ctx, user, query)
}

// FindIssues returns the project's issues with the given fix version and
// issue type, filtered to Done when released is true and Unresolved
// otherwise.
func (s *Searcher) FindIssues(ctx context.Context, user domain.User, project domain.Project, version domain.Version, issueType domain.IssueType, released bool) ([]domain.Issue, error) {
	query := NewQuery().
		Project(project.ID).
		IssueType(issueType.ID).
		FixVersion(version.ID).
		Released(released).
		Build()
	return s.exec.Execute(ctx, user, query)
}

// FindIssuesByCustomFieldValue returns the issues whose custom field
// matches value: exact equality when exact is true, substring match
// otherwise (the default).
func (s *Searcher) FindIssuesByCustomFieldValue(ctx context.Context, user domain.User, field domain.FieldHandle, value string, exact bool) ([]domain.Issue, error) {
	query := NewQuery().CustomField(field.ID, value, exact).Build()
	return s.exec.Execute(ctx, user, query)
}

// FindIssuesWithApprovedVersions returns the project's issues whose
// Versions-Approved-For-Release picker contains any of the given versions,
// optionally bounded by an updated-after date. When the field does not
// exist in the store the result is empty, not an error: absence of the
// audit field is an expected configuration.
func (s *Searcher) FindIssuesWithApprovedVersions(ctx context.Context, user domain.User, project domain.Project, versions []domain.Version, after *time.Time) ([]domain.Issue, error) {
	return s.FindIssuesWithVersionPicker(ctx, user, project, fields.ApprovedForRelease, versions, after)
}

// FindIssuesWithVersionPicker returns the project's issues whose
// version-picker custom field contains any of the given versions. Absent
// fields yield an empty result.
func (s *Searcher) FindIssuesWithVersionPicker(ctx context.Context, user domain.User, project domain.Project, field fields.Field, versions []domain.Version, after *time.Time) ([]domain.Issue, error) {
	handle, ok, err := s.resolver.ResolveSafe(field.Name())
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug(log.CatSearch, "picker field absent from store, returning no issues",
			"field", field.Name(), "project", project.Key)
		return []domain.Issue{}, nil
	}

	builder := NewQuery().
		Project(project.ID).
		CustomFieldVersions(handle.ID, domain.VersionIDs(versions)...)
	if after != nil {
		builder.UpdatedAfter(*after)
	}
	return s.exec.Execute(ctx, user, builder.Build())
}
