// Package version contains adblockd build information.  The values are set by
// the linker; the revision and the commit time fall back to the VCS
// information embedded by the Go toolchain.
package version

import (
	"runtime/debug"
	"sync"
)

// Linker-set values.  They are only exported through getters, since Go can't
// set constants during linking.
var (
	branch     string
	committime string
	revision   string
	version    string
)

// name is the name of the program.
const name = "adblockd"

// devVersion is the version of builds made without the linker flags.
const devVersion = "dev"

// vcsInfo returns the revision and the commit time from the build information
// of the binary.  Both are empty if the information is not available.
var vcsInfo = sync.OnceValues(func() (rev, commitTime string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			commitTime = s.Value
		}
	}

	return rev, commitTime
})

// Branch returns the compiled-in value of the Git branch.
func Branch() (b string) {
	return branch
}

// CommitTime returns the commit time of the build as a string.
func CommitTime() (t string) {
	if committime != "" {
		return committime
	}

	_, t = vcsInfo()

	return t
}

// Revision returns the Git revision of the build.
func Revision() (r string) {
	if revision != "" {
		return revision
	}

	r, _ = vcsInfo()

	return r
}

// Version returns the compiled-in value of the adblockd version or "dev" for
// builds without the linker flags.
func Version() (v string) {
	if version == "" {
		return devVersion
	}

	return version
}

// Name returns the name of the program.
func Name() (n string) {
	return name
}
