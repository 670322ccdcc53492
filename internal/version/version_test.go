package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestInfoString(t *testing.T) {
	testCases := []struct {
		name string
		info Info
		want string
	}{
		{"release", Info{Version: "v1.0.0", GoVersion: "go1.23.4", Platform: "linux/amd64"},
			"gogb v1.0.0 go1.23.4 linux/amd64"},
		{"short revision", Info{Version: "dev", Revision: "0123456789abcdef", GoVersion: "go1.23.4", Platform: "linux/arm64"},
			"gogb dev (0123456) go1.23.4 linux/arm64"},
		{"modified tree", Info{Version: "dev", Revision: "abc", Modified: true, GoVersion: "go1.23.4", Platform: "darwin/arm64"},
			"gogb dev (abc, modified) go1.23.4 darwin/arm64"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPrintUsesLdflagsVersion(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()
	Version = "v9.9.9"

	var buf bytes.Buffer
	Print(&buf)
	if !strings.HasPrefix(buf.String(), "gogb v9.9.9") || !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}
