package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relenghq/releng/internal/tracker/domain"
)

func TestBuilderAssemblesClausesInOrder(t *testing.T) {
	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	query := NewQuery().
		Project(7).
		IssueType(3).
		FixVersion(10, 11).
		Resolution(domain.ResolutionDone).
		CustomField(42, "ACME", false).
		UpdatedAfter(after).
		Build()

	require.Len(t, query.Clauses, 6)
	assert.Equal(t, domain.ClauseProject, query.Clauses[0].Kind)
	assert.Equal(t, int64(7), query.Clauses[0].ProjectID)
	assert.Equal(t, domain.ClauseIssueType, query.Clauses[1].Kind)
	assert.Equal(t, []int64{10, 11}, query.Clauses[2].VersionIDs)
	assert.Equal(t, domain.ResolutionDone, query.Clauses[3].Resolution)
	assert.Equal(t, "ACME", query.Clauses[4].Value)
	assert.False(t, query.Clauses[4].Exact)
	assert.Equal(t, after, query.Clauses[5].After)
}

func TestReleasedMapsOntoFixedResolutions(t *testing.T) {
	assert.Equal(t, domain.ResolutionDone, NewQuery().Released(true).Build().Clauses[0].Resolution)
	assert.Equal(t, domain.ResolutionUnresolved, NewQuery().Released(false).Build().Clauses[0].Resolution)
}

func TestBuildReturnsImmutableQuery(t *testing.T) {
	builder := NewQuery().Project(1)
	first := builder.Build()
	builder.FixVersion(2)
	second := builder.Build()

	assert.Len(t, first.Clauses, 1, "earlier builds must not grow")
	assert.Len(t, second.Clauses, 2)
}

func TestQueryStringRendering(t *testing.T) {
	query := NewQuery().
		Project(7).
		FixVersion(10).
		Resolution(domain.ResolutionDone).
		Build()
	assert.Equal(t, "project = 7 AND fixVersion = 10 AND resolution = Done ORDER BY key ASC", query.String())

	query = NewQuery().CustomField(42, "v", true).Build()
	assert.Equal(t, `cf[42] = "v" ORDER BY key ASC`, query.String())

	query = NewQuery().CustomFieldVersions(42, 10, 11).Build()
	assert.Equal(t, "cf[42] in (10, 11) ORDER BY key ASC", query.String())
}
