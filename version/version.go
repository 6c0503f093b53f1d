// Package version describes the privy build. The variables are set with
// -ldflags "-X github.com/jet/privy/version.GitCommit=..." at build time.
package version

import (
	"fmt"
)

var (
	// GitCommit is filled in by the build script
	GitCommit string

	// Number is the base semantic version number of privy
	Number = "0.1.0"

	// PreRelease is the pre-release information for this version
	PreRelease = ""

	// BuildMetadata is the build-metadata of this version
	BuildMetadata = ""

	// BuildTime is the build timestamp in ISO-8601 format
	BuildTime = ""
)

// Info about the running privy build
type Info struct {
	Revision      string
	Number        string
	PreRelease    string
	BuildMetadata string
	BuildTime     string
}

func GetInfo() Info {
	return Info{
		Revision:      GitCommit,
		Number:        Number,
		PreRelease:    PreRelease,
		BuildMetadata: BuildMetadata,
		BuildTime:     BuildTime,
	}
}

// String returns the semantic version
func (i Info) String() string {
	version := i.Number
	if i.PreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, i.PreRelease)
	}
	if i.BuildMetadata != "" {
		version = fmt.Sprintf("%s+%s", version, i.BuildMetadata)
	}
	return version
}

// FullString is the banner printed by `privy version`; rev adds the
// git revision and build time when they were set
func (i Info) FullString(rev bool) string {
	str := fmt.Sprintf("Privy v%s", i.String())
	if !rev {
		return str
	}
	if i.Revision != "" {
		str = fmt.Sprintf("%s (%s)", str, i.Revision)
	}
	if i.BuildTime != "" {
		str = fmt.Sprintf("%s built %s", str, i.BuildTime)
	}
	return str
}

// Fields are the version attributes attached to every log line
func (i Info) Fields() map[string]interface{} {
	fields := map[string]interface{}{"version": i.String()}
	if i.Revision != "" {
		fields["revision"] = i.Revision
	}
	return fields
}
