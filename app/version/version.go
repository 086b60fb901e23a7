// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package version provides the release version and build information of picarlo.
package version

import (
	"context"
	"runtime/debug"

	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/z"
)

// version is the release version of the codebase.
// Usually overridden by tag names when building binaries via
// -ldflags "-X github.com/obolnetwork/picarlo/app/version.version=v0.2.0".
var version = "v0.1.0-dev"

// Version returns the release version.
func Version() string {
	return version
}

// GitCommit returns the git commit hash and timestamp from build info.
func GitCommit() (hash string, timestamp string) {
	hash, timestamp = "unknown", "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return hash, timestamp
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			hash = s.Value[:7]
		} else if s.Key == "vcs.time" {
			timestamp = s.Value
		}
	}

	return hash, timestamp
}

// LogInfo logs picarlo version information along-with the provided message.
func LogInfo(ctx context.Context, msg string) {
	gitHash, gitTimestamp := GitCommit()
	log.Info(ctx, msg,
		z.Str("version", version),
		z.Str("git_commit_hash", gitHash),
		z.Str("git_commit_time", gitTimestamp),
	)
}
