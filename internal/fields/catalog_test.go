package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLocalizedName(t *testing.T) {
	assert.Equal(t, "Highlight", Highlight.LocalizedName(LangEN))
	assert.Equal(t, "Highlight (ru)", Highlight.LocalizedName(LangRU))
	assert.Equal(t, "Versions Approved For Release", ApprovedForRelease.Name())
}

// TestProperty_RussianNameIsSuffixedEnglishName covers the suffix rule for
// every catalog entry: ru variant == en variant + " (ru)", en variant is the
// canonical name unchanged.
func TestProperty_RussianNameIsSuffixedEnglishName(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.SampledFrom(All()).Draw(t, "field")
		if f.LocalizedName(LangRU) != f.LocalizedName(LangEN)+" (ru)" {
			t.Fatalf("suffix rule broken for %q", f)
		}
		if f.LocalizedName(LangEN) != f.Name() {
			t.Fatalf("english variant of %q is not the canonical name", f)
		}
	})
}

func TestByDisplayName(t *testing.T) {
	f, ok := ByDisplayName("RC Version/s")
	require.True(t, ok)
	assert.Equal(t, RCVersions, f)

	// The suffixed form is a display artifact, not a separate identity.
	_, ok = ByDisplayName("RC Version/s (ru)")
	assert.False(t, ok)

	_, ok = ByDisplayName("No Such Field")
	assert.False(t, ok)
}

func TestByDisplayNameCoversWholeCatalog(t *testing.T) {
	for _, f := range All() {
		got, ok := ByDisplayName(f.Name())
		require.True(t, ok, "missing reverse lookup for %q", f)
		assert.Equal(t, f, got)
	}
}

func TestLegacyIsProjectionOfCatalog(t *testing.T) {
	all := make(map[Field]bool, len(All()))
	for _, f := range All() {
		all[f] = true
	}
	legacy := Legacy()
	require.NotEmpty(t, legacy)
	assert.Less(t, len(legacy), len(All()))
	for _, f := range legacy {
		assert.True(t, all[f], "legacy field %q not in canonical catalog", f)
	}
	// The legacy table predates the sprint-era additions.
	for _, f := range legacy {
		assert.False(t, sprintEra[f])
	}
}

func TestSwapMigrationFields(t *testing.T) {
	assert.Equal(t,
		[]Field{RCVersions, ApprovedForRelease, Highlight, ImpactsOn},
		SwapMigrationFields())
}
