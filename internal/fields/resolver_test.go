package fields_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relenghq/releng/internal/fields"
	"github.com/relenghq/releng/internal/tracker/domain"
	"github.com/relenghq/releng/internal/tracker/trackertest"
)

func TestResolveKnownField(t *testing.T) {
	store := trackertest.New()
	seeded := store.AddField("Highlight")
	resolver := fields.NewResolver(store)

	handle, err := resolver.Resolve("Highlight")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, handle.ID)
	assert.Equal(t, "Highlight", handle.Name)
}

func TestResolveMissingFieldFailsWithNotFound(t *testing.T) {
	resolver := fields.NewResolver(trackertest.New())

	_, err := resolver.Resolve("RC Version/s")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), "RC Version/s")
}

func TestResolveSafeReportsAbsenceWithoutFailing(t *testing.T) {
	store := trackertest.New()
	store.AddField("Impacts On")
	resolver := fields.NewResolver(store)

	_, ok, err := resolver.ResolveSafe("Highlight")
	require.NoError(t, err)
	assert.False(t, ok)

	handle, ok, err := resolver.ResolveSafe("Impacts On")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Impacts On", handle.Name)
}

func TestExists(t *testing.T) {
	store := trackertest.New()
	store.AddField("Builds")
	resolver := fields.NewResolver(store)

	ok, err := resolver.Exists("Builds")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.Exists("License")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAmbiguousDisplayNameIsAConfigurationError(t *testing.T) {
	store := trackertest.New()
	store.AddField("Product")
	store.AddField("Product")
	resolver := fields.NewResolver(store)

	_, err := resolver.Resolve("Product")
	require.Error(t, err)
	assert.False(t, domain.IsNotFound(err), "ambiguity must not read as absence")
	assert.Contains(t, err.Error(), "ambiguous")

	// ResolveSafe must not mask the configuration error either.
	_, _, err = resolver.ResolveSafe("Product")
	require.Error(t, err)
}

func TestConfigLookup(t *testing.T) {
	store := trackertest.New()
	field := store.AddField("RC Version/s")
	store.AddFieldConfig(field, "default scheme", "OTHER")
	store.AddFieldConfig(field, "release scheme", "TEST", "DEMO")
	resolver := fields.NewResolver(store)

	cfg, err := resolver.Config(field, "TEST")
	require.NoError(t, err)
	assert.Equal(t, "release scheme", cfg.Scheme)

	_, err = resolver.Config(field, "NOPE")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	_, ok, err := resolver.ConfigSafe(field, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}
