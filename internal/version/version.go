// Package version provides the streamrelay version and build info.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Overridable with -ldflags "-X github.com/memohai/streamrelay/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

var readBuildInfo sync.Once

func loadVCS() {
	readBuildInfo.Do(func() {
		if CommitHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				CommitHash = setting.Value
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	})
}

// GetInfo returns the version followed by the short commit hash, if known.
func GetInfo() string {
	loadVCS()
	res := Version
	if CommitHash != "" {
		short := CommitHash
		if len(short) > 7 {
			short = short[:7]
		}
		res += fmt.Sprintf(" (%s)", short)
	}
	if BuildTime != "" {
		res += " built " + BuildTime
	}
	return res
}

// UserAgent identifies outbound HTTP requests, e.g. file downloads.
func UserAgent() string {
	return "streamrelay/" + Version
}
