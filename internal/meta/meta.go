package meta

const CLIName = "drillctl"

// Set with -ldflags "-X github.com/adsdrill/drillctl/internal/meta.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Empty type to represent the build info in a Context
type Key struct{}

var InfoKey = Key{}

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func Info() *BuildInfo {
	return &BuildInfo{Version: Version, Commit: Commit, Date: Date}
}
