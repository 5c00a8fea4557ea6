// Copyright 2026 The Comptree Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.Contains(info, Version) {
		t.Errorf("Info() = %q, should contain version %q", info, Version)
	}
	if !strings.Contains(info, GitCommit) {
		t.Errorf("Info() = %q, should contain commit %q", info, GitCommit)
	}
}

func TestInfoDirty(t *testing.T) {
	saved := GitDirty
	defer func() { GitDirty = saved }()

	GitDirty = "true"
	if !strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, should mark dirty builds", Info())
	}

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, should not mark clean builds dirty", Info())
	}
}

func TestFull(t *testing.T) {
	full := Full()
	for _, want := range []string{"Go:", "Platform:"} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() = %q, should contain %q", full, want)
		}
	}
}

func TestShort(t *testing.T) {
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}
