// Package buildinfo exposes version metadata stamped at link time.
package buildinfo

// Set via -ldflags "-X incman/internal/buildinfo.Version=... -X ...".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders the stamped build identity in one line.
func String() string {
	out := Version
	if Commit != "" {
		out += " (" + Commit
		if Date != "" {
			out += ", built " + Date
		}
		out += ")"
	}
	return out
}
