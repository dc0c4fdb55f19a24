// Package version holds build information stamped in at link time.
package version

import (
	"fmt"
	"runtime"
)

// Populated via -ldflags "-X github.com/datafund/swarmgate/pkg/version.Version=..."
var (
	Version   = "v0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build info of the current binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return i.Version
}
