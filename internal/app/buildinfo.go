package app

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// Version is filled by ldflags in release builds.
	Version = "dev"
	// BuildDate is filled by ldflags in release builds.
	BuildDate = ""
)

const (
	devVersion     = "dev"
	revisionLength = 7
)

var readBuildInfo = debug.ReadBuildInfo

// BuildInfo describes the running binary. Values from ldflags win; local
// builds fall back to the VCS stamp the Go toolchain embeds.
type BuildInfo struct {
	Version  string
	Revision string
	Date     string
	Modified bool
}

func CurrentBuild() BuildInfo {
	b := BuildInfo{
		Version: strings.TrimSpace(Version),
		Date:    strings.TrimSpace(BuildDate),
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				b.Revision = s.Value
				if len(b.Revision) > revisionLength {
					b.Revision = b.Revision[:revisionLength]
				}
			case "vcs.time":
				if b.Date == "" {
					b.Date = s.Value
				}
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
		if b.Version == "" || b.Version == devVersion {
			if v := info.Main.Version; v != "" && v != "(devel)" {
				b.Version = v
			}
		}
	}
	if b.Version == "" {
		b.Version = devVersion
	}

	return b
}

// BuildVersion is the release version, or dev plus the VCS revision for
// local builds.
func BuildVersion() string {
	b := CurrentBuild()
	if b.Version != devVersion || b.Revision == "" {
		return b.Version
	}
	version := b.Version + "-" + b.Revision
	if b.Modified {
		version += "-dirty"
	}

	return version
}

func BuildDateYMD() string {
	raw := CurrentBuild().Date
	if raw == "" {
		return ""
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC().Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		date := raw[:len(time.DateOnly)]
		if _, err := time.Parse(time.DateOnly, date); err == nil {
			return date
		}
	}

	return raw
}

func BuildVersionWithDate() string {
	version := BuildVersion()
	if buildDate := BuildDateYMD(); buildDate != "" {
		return fmt.Sprintf("%s (%s)", version, buildDate)
	}

	return version
}

// UserAgent identifies the client to the camera server.
func UserAgent() string {
	return Name + "/" + BuildVersion()
}
