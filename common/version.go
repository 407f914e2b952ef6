// Copyright 2022
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

// commitHash and buildDate identify the exact build; release builds inject
// them with -ldflags.
var (
	commitHash string
	buildDate  string
)

// Version is a SemVer 2.0.0 build version.
type Version struct {
	Major int
	Minor int
	Patch int

	// Suffix is the pre-release tag, e.g. "dev"; blank for releases.
	Suffix string
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Suffix != "" {
		s += "-" + v.Suffix
		if commitHash != "" {
			s += "+" + strings.ToLower(commitHash)
		}
	}
	return s
}

// BuildVersionString is the full report printed by `pvfactors version`.
func BuildVersionString() string {
	date := buildDate
	if date == "" {
		date = "unknown"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "pvfactors v%s %s/%s\n\n", CurrentVersion, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Build Date: %s\nCommit: %s\nBuilt with: %s\n", date, commitHash, runtime.Version())
	sb.WriteString("\nDependencies:\n\n")
	sb.WriteString(strings.Join(GetDependencyList(), "\n"))
	return sb.String()
}

// GetDependencyList returns the build's module dependencies as sorted
// path="version" pairs.
func GetDependencyList() []string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	deps := make([]string, 0, len(bi.Deps))
	for _, dep := range bi.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}
	sort.Strings(deps)
	return deps
}
