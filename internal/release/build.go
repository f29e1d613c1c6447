package release

import "regexp"

// crdBuildPattern matches CRD build labels: four two-digit groups separated
// by dots, then a hyphen or '#', then a build number. The whole label must
// match; anything else is a different build-naming scheme, not an error.
var crdBuildPattern = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{2}\.\d{2})[-#]\d+$`)

// ParseBuildVersion extracts the release version name from a CRD build
// label, e.g. "24.03.12.01-7" yields "24.03.12.01". The second return is
// false when the label does not follow the CRD convention.
func ParseBuildVersion(buildLabel string) (string, bool) {
	m := crdBuildPattern.FindStringSubmatch(buildLabel)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCRDBuild reports whether the build label follows the CRD convention.
func IsCRDBuild(buildLabel string) bool {
	return crdBuildPattern.MatchString(buildLabel)
}
