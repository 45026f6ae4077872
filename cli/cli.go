// Package cli carries the version stamp injected by release builds:
//
//	-ldflags "-X 'github.com/flarebyte/chartship/cli.Version=1.2.3' -X 'github.com/flarebyte/chartship/cli.Date=2026-02-09'"
package cli

var (
	Version string
	Date    string
)
