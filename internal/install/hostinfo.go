// Package install plans and executes first-time daemon installation: host
// fact gathering, the pure bootstrap decision table, preseed generation,
// and the privileged step executor.
package install

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"
)

// Facts describe the host the installer plans against.
type Facts struct {
	Distro   string // os-release ID (ubuntu, debian, fedora, ...)
	Version  string // os-release VERSION_ID (24.04, 12, ...)
	Codename string // os-release VERSION_CODENAME (noble, bookworm), may be empty
	Arch     string // dpkg architecture when known (amd64, arm64)
	User     string // invoking user, granted daemon admin membership
}

const osReleasePath = "/etc/os-release"

// CurrentFacts reads the host identity: /etc/os-release, the dpkg
// architecture (best effort, absent on non-deb systems), and the invoking
// user.
func CurrentFacts() (Facts, error) {
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return Facts{}, fmt.Errorf("read %s: %w", osReleasePath, err)
	}
	facts := ParseOSRelease(string(data))

	if out, err := exec.Command("dpkg", "--print-architecture").Output(); err == nil {
		facts.Arch = strings.TrimSpace(string(out))
	}

	invoking, err := invokingUser()
	if err != nil {
		return Facts{}, err
	}
	facts.User = invoking
	return facts, nil
}

// ParseOSRelease extracts the distribution identity from os-release
// content. Values may be quoted; unknown keys are ignored.
func ParseOSRelease(content string) Facts {
	var f Facts
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "ID":
			f.Distro = strings.ToLower(value)
		case "VERSION_ID":
			f.Version = value
		case "VERSION_CODENAME":
			f.Codename = strings.ToLower(value)
		}
	}
	return f
}

// invokingUser resolves who gets daemon admin membership. Under sudo the
// caller is SUDO_USER, not root.
func invokingUser() (string, error) {
	for _, env := range []string{"SUDO_USER", "USER"} {
		if u := strings.TrimSpace(os.Getenv(env)); u != "" {
			return u, nil
		}
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("determine invoking user: %w", err)
	}
	return u.Username, nil
}
