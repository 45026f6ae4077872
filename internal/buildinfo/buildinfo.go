// Package buildinfo exposes version metadata for chartship. Values are set
// with -ldflags; cli.Version and cli.Date are honored when these are empty.
package buildinfo

import (
	"strings"

	"github.com/flarebyte/chartship/cli"
)

var (
	Version = "dev"
	Commit  = ""
	// Date is the build time, usually RFC3339.
	Date    = ""
	BuiltBy = ""
)

// Summary renders the version with the short commit and date, when known.
func Summary() string {
	v := Version
	if v == "" {
		v = cli.Version
	}
	if v == "" {
		v = "dev"
	}

	d := Date
	if d == "" {
		d = cli.Date
	}

	parts := make([]string, 0, 2)
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if d != "" {
		parts = append(parts, "date="+d)
	}
	if len(parts) > 0 {
		v += " (" + strings.Join(parts, ", ") + ")"
	}
	return v
}
