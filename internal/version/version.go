package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/tablayout"
	unknownVersion = "v0.0.0-unknown"
	dirtySuffix    = "+dirty"
)

// buildVersion is set via -ldflags "-X pkt.systems/tablayout/internal/version.buildVersion=...".
var buildVersion = ""

// String returns the program name followed by the version, for banners and
// the version command.
func String() string {
	return "tablayout " + CurrentWithDirty()
}

// Current returns the version without a dirty suffix.
func Current() string {
	return resolve(false)
}

// CurrentWithDirty returns the version, marked +dirty for modified checkouts.
func CurrentWithDirty() string {
	return resolve(true)
}

// Module returns the main module path from build info, if any.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}

// resolve picks, in order: the linker-set version, the module version, a
// pseudo-version from VCS stamps.
func resolve(includeDirty bool) string {
	candidates := []string{buildVersion}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "(devel)" {
			candidates = append(candidates, v)
		}
		candidates = append(candidates, pseudoFromBuildInfo(info, includeDirty))
	}
	for _, candidate := range candidates {
		if v := strings.TrimSpace(candidate); v != "" {
			if !includeDirty {
				v = strings.TrimSuffix(v, dirtySuffix)
			}
			return v
		}
	}
	return unknownVersion
}

type vcsStamp struct {
	revision string
	at       time.Time
	modified bool
}

func readStamp(info *debug.BuildInfo) (vcsStamp, bool) {
	if info == nil {
		return vcsStamp{}, false
	}
	var stamp vcsStamp
	var rawTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			stamp.revision = setting.Value
		case "vcs.time":
			rawTime = setting.Value
		case "vcs.modified":
			stamp.modified = setting.Value == "true"
		}
	}
	if stamp.revision == "" || rawTime == "" {
		return vcsStamp{}, false
	}
	at, err := time.Parse(time.RFC3339, rawTime)
	if err != nil {
		return vcsStamp{}, false
	}
	stamp.at = at.UTC()
	return stamp, true
}

func pseudoFromBuildInfo(info *debug.BuildInfo, includeDirty bool) string {
	stamp, ok := readStamp(info)
	if !ok {
		return ""
	}
	rev := stamp.revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	var b strings.Builder
	b.WriteString("v0.0.0-")
	b.WriteString(stamp.at.Format("20060102150405"))
	b.WriteString("-")
	b.WriteString(rev)
	if stamp.modified && includeDirty {
		b.WriteString(dirtySuffix)
	}
	return b.String()
}
