package incusrun

import (
	"encoding/csv"
	"strings"
)

// reservedProfile is attached to every instance by the daemon and is not a
// user choice.
const reservedProfile = "default"

// ParseProfiles extracts profile names from `profile list --format csv`
// output. The first record is a header and is skipped, the first field of
// each remaining record is the name, and the reserved default profile is
// excluded. Order is preserved.
func ParseProfiles(out string) []string {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var names []string
	header := true
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" || name == reservedProfile {
			continue
		}
		names = append(names, name)
	}
	return names
}

// parseMadison extracts the version column from apt-cache madison output.
// Each line reads "package | version | source"; lines without a version
// column are skipped.
func parseMadison(out string) []string {
	var versions []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			continue
		}
		if v := strings.TrimSpace(fields[1]); v != "" {
			versions = append(versions, v)
		}
	}
	return versions
}

// parseSnapFind extracts the incus snap's version from `snap find` output.
// The first line is the column header; other snaps in the result set, such
// as incus-ui, are ignored.
func parseSnapFind(out string) []string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return nil
	}
	var versions []string
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "incus" {
			continue
		}
		versions = append(versions, fields[1])
	}
	return versions
}
