package release

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseBuildVersion(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantCRD bool
	}{
		{"24.03.12.01-7", "24.03.12.01", true},
		{"24.03.12.01#123", "24.03.12.01", true},
		{"24.03.12.01#55", "24.03.12.01", true},
		{"24.3.12.1-7", "", false},      // single-digit groups
		{"24.03.12.01-", "", false},     // missing build number
		{"24.03.12.01", "", false},      // no separator
		{"release-42", "", false},       // different convention
		{"x24.03.12.01-7", "", false},   // must match the whole label
		{"24.03.12.01-7x", "", false},   // trailing garbage
		{"24.03.12.01.02-7", "", false}, // five groups
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseBuildVersion(tt.label)
			assert.Equal(t, tt.wantCRD, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCRD, IsCRDBuild(tt.label))
		})
	}
}

// TestProperty_ParseRoundTrip generates well-formed CRD labels and checks
// the parsed version is always the dotted prefix.
func TestProperty_ParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := make([]int, 4)
		for i := range groups {
			groups[i] = rapid.IntRange(0, 99).Draw(t, fmt.Sprintf("group-%d", i))
		}
		sep := rapid.SampledFrom([]string{"-", "#"}).Draw(t, "sep")
		build := rapid.IntRange(0, 99999).Draw(t, "build")

		version := fmt.Sprintf("%02d.%02d.%02d.%02d", groups[0], groups[1], groups[2], groups[3])
		label := fmt.Sprintf("%s%s%d", version, sep, build)

		require.True(t, IsCRDBuild(label), "label %q should be a CRD build", label)
		got, ok := ParseBuildVersion(label)
		require.True(t, ok)
		require.Equal(t, version, got)
	})
}
