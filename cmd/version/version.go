// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build-time variables, overridden via ldflags.
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
	BuildTime = "unknown-buildtime"
)

// BuildInfo describes the binary. Module version and VCS revision recorded by
// the Go toolchain are used when ldflags are absent.
func BuildInfo() string {
	version, commit := Version, GitCommit
	if info, ok := debug.ReadBuildInfo(); ok {
		if strings.HasPrefix(version, "unknown") && info.Main.Version != "" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && strings.HasPrefix(commit, "unknown") {
				commit = setting.Value
			}
		}
	}
	var sb strings.Builder
	fmt.Fprintln(&sb, "Version:\t", version)
	fmt.Fprintln(&sb, "Go version:\t", runtime.Version())
	fmt.Fprintln(&sb, "Git commit:\t", commit)
	fmt.Fprintln(&sb, "Built:\t\t", BuildTime)
	fmt.Fprintf(&sb, "OS/Arch:\t %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return sb.String()
}
