package install

import (
	"fmt"
	"strconv"
	"strings"
)

// Channels of the vendor package repository.
const (
	ChannelDaily  = "daily"
	ChannelStable = "stable"
	ChannelLTS    = "lts"
)

const (
	keyURL      = "https://pkgs.zabbly.com/key.asc"
	keyringPath = "/etc/apt/keyrings/zabbly.asc"
	adminGroup  = "incus-admin"
)

// Options select how the daemon package is installed.
type Options struct {
	// Channel picks the vendor repository channel: daily, stable, or lts.
	// Empty means stable.
	Channel string
	// UseNative prefers the distribution's own package where one is good
	// enough (Ubuntu 24.04+ on the lts channel).
	UseNative bool
}

// Step is one privileged operation of an install plan. Exactly one of Run,
// File, and Fetch is set.
type Step struct {
	ID    string
	Title string

	// Run is an argv executed as root.
	Run []string
	// File writes fixed content; parent directories are created.
	File *FileWrite
	// Fetch downloads a URL to a path; parent directories are created.
	Fetch *FileFetch
}

// FileWrite creates a file with fixed content.
type FileWrite struct {
	Path    string
	Content string
}

// FileFetch downloads a URL to a local path.
type FileFetch struct {
	URL  string
	Path string
}

// InstallPlan is an ordered list of privileged steps plus whether the host
// needs a reboot (in practice a re-login) before group membership applies.
// A plan performs no I/O and is consumed exactly once by an Executor.
type InstallPlan struct {
	Steps          []Step
	RebootRequired bool
}

// PlanInstall maps host facts and options onto the privileged steps that
// put the daemon on this host. Pure decision table: no I/O here.
func PlanInstall(facts Facts, opts Options) (InstallPlan, error) {
	channel, err := normalizeChannel(opts.Channel)
	if err != nil {
		return InstallPlan{}, err
	}
	if strings.TrimSpace(facts.User) == "" {
		return InstallPlan{}, fmt.Errorf("invoking user unknown; cannot grant %s membership", adminGroup)
	}

	distro := strings.ToLower(strings.TrimSpace(facts.Distro))
	var steps []Step

	switch distro {
	case "ubuntu":
		if strings.TrimSpace(facts.Version) == "" {
			return InstallPlan{}, &UnsupportedPlatformError{Distro: distro}
		}
		recent, err := ubuntuAtLeast(facts.Version, 24, 4)
		if err != nil {
			return InstallPlan{}, err
		}
		if recent && channel == ChannelLTS && opts.UseNative {
			steps = append(steps, aptInstallStep("install incus from the Ubuntu archive"))
		} else {
			steps = append(steps, zabblySteps(facts, channel)...)
		}
	case "debian":
		steps = append(steps, zabblySteps(facts, channel)...)
	case "fedora", "rocky":
		steps = append(steps, Step{
			ID:    "dnf_install",
			Title: "install incus via dnf",
			Run:   []string{"dnf", "install", "-y", "incus"},
		})
	case "arch":
		steps = append(steps, Step{
			ID:    "pacman_install",
			Title: "install incus via pacman",
			Run:   []string{"pacman", "-S", "--noconfirm", "incus"},
		})
	case "gentoo":
		steps = append(steps, Step{
			ID:    "emerge_install",
			Title: "install incus via emerge",
			Run:   []string{"emerge", "-av", "app-containers/incus"},
		})
	default:
		return InstallPlan{}, &UnsupportedPlatformError{Distro: facts.Distro}
	}

	steps = append(steps, Step{
		ID:    "group_add",
		Title: fmt.Sprintf("add %s to the %s group", facts.User, adminGroup),
		Run:   []string{"usermod", "-aG", adminGroup, facts.User},
	})

	return InstallPlan{Steps: steps, RebootRequired: true}, nil
}

// zabblySteps adds the vendor repository and installs the package from it.
func zabblySteps(facts Facts, channel string) []Step {
	suite := strings.TrimSpace(facts.Codename)
	if suite == "" {
		suite = strings.TrimSpace(facts.Version)
	}
	return []Step{
		{
			ID:    "fetch_key",
			Title: "fetch the Zabbly signing key",
			Fetch: &FileFetch{URL: keyURL, Path: keyringPath},
		},
		{
			ID:    "write_sources",
			Title: fmt.Sprintf("add the Zabbly incus %s repository", channel),
			File: &FileWrite{
				Path:    fmt.Sprintf("/etc/apt/sources.list.d/zabbly-incus-%s.sources", channel),
				Content: sourcesFile(channel, suite, facts.Arch),
			},
		},
		{
			ID:    "apt_update",
			Title: "refresh the package index",
			Run:   []string{"apt", "update"},
		},
		aptInstallStep("install incus from the Zabbly repository"),
	}
}

func aptInstallStep(title string) Step {
	return Step{
		ID:    "apt_install",
		Title: title,
		Run:   []string{"apt", "install", "-y", "incus"},
	}
}

// sourcesFile renders the deb822 repository definition. An unknown
// architecture omits the Architectures field, which apt reads as "all".
func sourcesFile(channel, suite, arch string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enabled: yes\n")
	fmt.Fprintf(&b, "Types: deb\n")
	fmt.Fprintf(&b, "URIs: https://pkgs.zabbly.com/incus/%s\n", channel)
	fmt.Fprintf(&b, "Suites: %s\n", suite)
	fmt.Fprintf(&b, "Components: main\n")
	if arch != "" {
		fmt.Fprintf(&b, "Architectures: %s\n", arch)
	}
	fmt.Fprintf(&b, "Signed-By: %s\n", keyringPath)
	return b.String()
}

func normalizeChannel(channel string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(channel))
	switch c {
	case "":
		return ChannelStable, nil
	case ChannelDaily, ChannelStable, ChannelLTS:
		return c, nil
	default:
		return "", fmt.Errorf("unknown channel %q (want daily, stable, or lts)", channel)
	}
}

// ubuntuAtLeast compares an Ubuntu YY.MM version string against a floor.
func ubuntuAtLeast(version string, major, minor int) (bool, error) {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 2)
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return false, fmt.Errorf("parse ubuntu version %q: %w", version, err)
	}
	if maj != major {
		return maj > major, nil
	}
	if len(parts) < 2 {
		return minor <= 0, nil
	}
	mnr, err := strconv.Atoi(parts[1])
	if err != nil {
		return false, fmt.Errorf("parse ubuntu version %q: %w", version, err)
	}
	return mnr >= minor, nil
}
