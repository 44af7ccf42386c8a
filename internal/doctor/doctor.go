// Package doctor inspects the host for the pieces an instance control
// session depends on: the CLI binary, the daemon socket, admin group
// membership, clock health, and the configured bridge. Every check is
// read only.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"slices"
	"time"

	"incman/internal/install"

	"github.com/beevik/ntp"
	"github.com/containerd/errdefs"
)

const (
	adminGroup  = "incus-admin"
	ntpPool     = "pool.ntp.org"
	offsetLimit = 500 * time.Millisecond
)

// Result is a single check outcome.
type Result struct {
	OK     bool
	Detail string
}

// Check is one named probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Lister probes the daemon over its socket. In production this is
// *client.Client; tests use a fake.
type Lister interface {
	ListInstances(ctx context.Context) ([]string, error)
}

// CLIProbe reports on the managed CLI binary. In production this is
// *incusrun.Runner; tests use a fake.
type CLIProbe interface {
	Installed() bool
	Binary() string
}

// Checks assembles the standard probe set. An empty bridge name skips
// the bridge check.
func Checks(daemon Lister, cli CLIProbe, bridge string) []Check {
	checks := []Check{
		HostCheck(),
		CLICheck(cli),
		DaemonCheck(daemon),
		GroupCheck(),
		ClockCheck(nil),
	}
	if bridge != "" {
		checks = append(checks, BridgeCheck(bridge))
	}
	return checks
}

// HostCheck reports the detected distribution and kernel.
func HostCheck() Check {
	return Check{
		Name: "host",
		Run: func(context.Context) Result {
			facts, err := install.CurrentFacts()
			if err != nil {
				return Result{Detail: err.Error()}
			}
			detail := facts.Distro
			if facts.Version != "" {
				detail += " " + facts.Version
			}
			if release := install.KernelRelease(); release != "" {
				detail += ", kernel " + release
			}
			return Result{OK: true, Detail: detail}
		},
	}
}

// CLICheck reports whether the managed CLI resolves on PATH.
func CLICheck(cli CLIProbe) Check {
	return Check{
		Name: "incus cli",
		Run: func(context.Context) Result {
			if !cli.Installed() {
				return Result{Detail: fmt.Sprintf("%s not found on PATH; run incman install", cli.Binary())}
			}
			return Result{OK: true, Detail: cli.Binary() + " on PATH"}
		},
	}
}

// DaemonCheck probes the daemon socket with a list request.
func DaemonCheck(daemon Lister) Check {
	return Check{
		Name: "daemon socket",
		Run: func(ctx context.Context) Result {
			instances, err := daemon.ListInstances(ctx)
			if err != nil {
				if errdefs.IsUnavailable(err) {
					return Result{Detail: fmt.Sprintf("%v; daemon not running, or current user lacks socket access (%s group)", err, adminGroup)}
				}
				return Result{Detail: err.Error()}
			}
			return Result{OK: true, Detail: fmt.Sprintf("answering, %d instances", len(instances))}
		},
	}
}

// GroupCheck reports whether the current user belongs to the socket
// admin group. Root talks to the socket without it.
func GroupCheck() Check {
	return groupCheck(currentGroupNames, os.Geteuid())
}

func groupCheck(groups func() ([]string, error), euid int) Check {
	return Check{
		Name: adminGroup + " group",
		Run: func(context.Context) Result {
			names, err := groups()
			if err != nil {
				return Result{Detail: fmt.Sprintf("resolve groups: %v", err)}
			}
			if slices.Contains(names, adminGroup) {
				return Result{OK: true, Detail: "member"}
			}
			if euid == 0 {
				return Result{OK: true, Detail: "not needed for root"}
			}
			return Result{Detail: fmt.Sprintf("not a member; run: usermod -aG %s $USER, then log in again", adminGroup)}
		},
	}
}

func currentGroupNames() ([]string, error) {
	current, err := user.Current()
	if err != nil {
		return nil, err
	}
	ids, err := current.GroupIds()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		group, err := user.LookupGroupId(id)
		if err != nil {
			// Stale gid without an entry, common in containers.
			continue
		}
		names = append(names, group.Name)
	}
	return names, nil
}

// QueryFunc returns the clock offset against an NTP host. In production
// this wraps ntp.Query; tests use a fake.
type QueryFunc func(host string) (time.Duration, error)

// ClockCheck compares the host clock against NTP. Image servers speak
// TLS, and certificate validation fails on a skewed clock. A nil query
// uses the real pool.
func ClockCheck(query QueryFunc) Check {
	if query == nil {
		query = queryOffset
	}
	return Check{
		Name: "clock",
		Run: func(context.Context) Result {
			offset, err := query(ntpPool)
			if err != nil {
				return Result{Detail: fmt.Sprintf("query %s: %v", ntpPool, err)}
			}
			if offset.Abs() >= offsetLimit {
				return Result{Detail: fmt.Sprintf("offset %s exceeds %s; image server TLS may fail", offset, offsetLimit)}
			}
			return Result{OK: true, Detail: fmt.Sprintf("offset %s", offset.Round(time.Millisecond))}
		},
	}
}

func queryOffset(host string) (time.Duration, error) {
	resp, err := ntp.Query(host)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// BridgeCheck verifies the configured bridge interface exists.
func BridgeCheck(name string) Check {
	return Check{
		Name: "bridge " + name,
		Run: func(context.Context) Result {
			detail, err := bridgeLookup(name)
			if err != nil {
				return Result{Detail: err.Error()}
			}
			return Result{OK: true, Detail: detail}
		},
	}
}
