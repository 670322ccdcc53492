// Package version reports which build of gogb is running.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Version is set at release time:
//
//	go build -ldflags "-X gogb/internal/version.Version=v1.0.0" ./cmd/gogb
var Version = "dev"

// Info describes the running binary
type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
	Platform  string
}

// Get collects build details, filling gaps from the embedded VCS stamp
func Get() Info {
	info := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}

// String formats the info as a single line, e.g.
// "gogb v1.0.0 (3f2a9c1, modified) go1.23.4 linux/amd64"
func (i Info) String() string {
	s := "gogb " + i.Version
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if i.Modified {
			rev += ", modified"
		}
		s += " (" + rev + ")"
	}
	return fmt.Sprintf("%s %s %s", s, i.GoVersion, i.Platform)
}

// Print writes the version line to w
func Print(w io.Writer) {
	fmt.Fprintln(w, Get())
}
