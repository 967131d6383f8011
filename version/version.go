// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package version reports the build of the anonpipe binary.
package version

import (
	"fmt"
	"strings"
	"time"
)

var (
	// BuildDate is the time of the git commit used to build the program,
	// in RFC3339 format. It is filled in by the compiler via makefile.
	BuildDate string

	// The git commit that was compiled. This will be filled in by the compiler.
	GitCommit   string
	GitDescribe string

	// The main version number that is being run at the moment.
	Version = "0.1.0"

	// A pre-release marker for the version. If this is "" (empty string)
	// then it means that it is a final release. Otherwise, this is a pre-release
	// such as "dev" (in development), "beta", "rc1", etc.
	VersionPrerelease = "dev"

	// VersionMetadata is metadata further describing the build type.
	VersionMetadata = ""
)

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	BuildDate         time.Time
	Revision          string
	Version           string
	VersionPrerelease string
	VersionMetadata   string
}

// GetVersion collects the build variables into a VersionInfo. A git
// describe string, when set, replaces the version number.
func GetVersion() *VersionInfo {
	ver := Version
	if GitDescribe != "" {
		ver = strings.TrimPrefix(GitDescribe, "v")
	}

	// on parse error, will be zero value time.Time{}
	built, _ := time.Parse(time.RFC3339, BuildDate)

	return &VersionInfo{
		BuildDate:         built,
		Revision:          GitCommit,
		Version:           ver,
		VersionPrerelease: VersionPrerelease,
		VersionMetadata:   VersionMetadata,
	}
}

// VersionNumber returns the semantic version, e.g. "0.1.0-dev+ent".
func (c *VersionInfo) VersionNumber() string {
	version := c.Version

	if c.VersionPrerelease != "" {
		version = fmt.Sprintf("%s-%s", version, c.VersionPrerelease)
	}

	if c.VersionMetadata != "" {
		version = fmt.Sprintf("%s+%s", version, c.VersionMetadata)
	}

	return version
}

// FullVersionNumber returns the version line printed by the version command,
// followed by the build date and, if rev is set, the git revision.
func (c *VersionInfo) FullVersionNumber(rev bool) string {
	lines := []string{"anonpipe v" + c.VersionNumber()}

	if !c.BuildDate.IsZero() {
		lines = append(lines, "BuildDate "+c.BuildDate.Format(time.RFC3339))
	}

	if rev && c.Revision != "" {
		lines = append(lines, "Revision "+c.Revision)
	}

	return strings.Join(lines, "\n")
}
