// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "strings"

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/lpnu-schedule-bot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/lpnu-schedule-bot/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/lpnu-schedule-bot/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release identifies the build for error reports: "version+commit", whichever
// parts are known, or "dev".
func Release() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	switch {
	case Version != "" && commit != "":
		return Version + "+" + commit
	case Version != "":
		return Version
	case commit != "":
		return commit
	default:
		return "dev"
	}
}

// String renders the metadata for --version output.
func String() string {
	parts := []string{Release()}
	if BuildDate != "" {
		parts = append(parts, "built "+BuildDate)
	}
	return strings.Join(parts, ", ")
}
