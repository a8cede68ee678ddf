// Package version holds the build version string.
package version

// Version is overridden at build time via -ldflags "-X ...version.Version=v1.2.3".
var Version = "dev"
