package core

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DisplayVersion normalizes a build version for banners and the CLI.
// Anything that is not a semantic version is reported as a development build.
func DisplayVersion(buildVersion string) string {
	v, err := semver.NewVersion(strings.TrimSpace(buildVersion))
	if err != nil {
		return "development"
	}
	return v.String()
}

// IsRelease reports whether buildVersion is a released (non-prerelease) version.
func IsRelease(buildVersion string) bool {
	v, err := semver.NewVersion(strings.TrimSpace(buildVersion))
	if err != nil {
		return false
	}
	return v.Prerelease() == ""
}
