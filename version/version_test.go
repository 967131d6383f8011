// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package version

import (
	"testing"
	"time"

	"github.com/hashicorp/go-anonpipe/ci"
	"github.com/shoenig/test/must"
)

func TestVersionInfo_FullVersionNumber(t *testing.T) {
	ci.Parallel(t)

	built := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		info VersionInfo
		rev  bool
		exp  string
	}{
		{
			name: "release",
			info: VersionInfo{Version: "1.2.3"},
			exp:  "anonpipe v1.2.3",
		},
		{
			name: "prerelease with metadata",
			info: VersionInfo{Version: "1.2.3", VersionPrerelease: "beta1", VersionMetadata: "ent"},
			exp:  "anonpipe v1.2.3-beta1+ent",
		},
		{
			name: "revision hidden",
			info: VersionInfo{Version: "1.2.3", Revision: "abc123"},
			exp:  "anonpipe v1.2.3",
		},
		{
			name: "build date and revision",
			info: VersionInfo{Version: "1.2.3", Revision: "abc123", BuildDate: built},
			rev:  true,
			exp:  "anonpipe v1.2.3\nBuildDate 2026-10-01T12:00:00Z\nRevision abc123",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			must.Eq(t, tc.exp, tc.info.FullVersionNumber(tc.rev))
		})
	}
}

func TestGetVersion_GitDescribe(t *testing.T) {
	orig := GitDescribe
	t.Cleanup(func() { GitDescribe = orig })

	GitDescribe = "v9.8.7"
	must.Eq(t, "9.8.7", GetVersion().Version)

	GitDescribe = ""
	must.Eq(t, Version, GetVersion().Version)
}
