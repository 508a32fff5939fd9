// Package version holds the build version reported by the HTTP API and the
// MCP server, so the two can never disagree.
package version

// Version is overridden at build time via
//
//	-ldflags "-X github.com/asynkron/liveview/internal/version.Version=<v>"
var Version = "0.1.0"
