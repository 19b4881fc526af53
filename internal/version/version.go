// Package version holds build metadata for the updater binaries.
//
// Set at link time:
//
//	go build -ldflags "-X github.com/rickgao/b3-data/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/b3-data/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/b3-data/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown" // UTC, ISO 8601
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent is the default User-Agent sent to the market data provider.
// The provider rejects requests without a browser-like product token.
func UserAgent() string {
	return "Mozilla/5.0 (compatible; b3-data/" + Version + ")"
}
