package incusrun

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type call struct {
	bin  string
	args []string
}

type execResult struct {
	stdout string
	stderr string
	code   int
	err    error
}

// scriptedExec fakes the process launcher, keyed by binary name.
type scriptedExec struct {
	results map[string]execResult
	calls   []call
}

func (s *scriptedExec) run(_ context.Context, bin string, args ...string) ([]byte, []byte, int, error) {
	s.calls = append(s.calls, call{bin: bin, args: args})
	res := s.results[bin]
	return []byte(res.stdout), []byte(res.stderr), res.code, res.err
}

func newFakeRunner(results map[string]execResult) (*Runner, *scriptedExec) {
	fake := &scriptedExec{results: results}
	return New(WithExec(fake.run)), fake
}

func TestLaunchInvocation(t *testing.T) {
	r, fake := newFakeRunner(nil)

	if err := r.Launch(context.Background(), "images:ubuntu/24.04", "web"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(fake.calls))
	}
	got := fake.calls[0]
	want := "incus launch images:ubuntu/24.04 web"
	if joined := got.bin + " " + strings.Join(got.args, " "); joined != want {
		t.Fatalf("invocation = %q, want %q", joined, want)
	}
}

func TestProfileAddInvocation(t *testing.T) {
	r, fake := newFakeRunner(nil)

	if err := r.ProfileAdd(context.Background(), "web", "gpu"); err != nil {
		t.Fatalf("ProfileAdd: %v", err)
	}
	got := strings.Join(fake.calls[0].args, " ")
	if got != "profile add web gpu" {
		t.Fatalf("args = %q, want %q", got, "profile add web gpu")
	}
}

func TestDeleteInvocation(t *testing.T) {
	r, fake := newFakeRunner(nil)

	if err := r.Delete(context.Background(), "web"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := strings.Join(fake.calls[0].args, " ")
	if got != "delete web" {
		t.Fatalf("args = %q, want %q", got, "delete web")
	}
}

func TestNonZeroExitBecomesProcessError(t *testing.T) {
	r, _ := newFakeRunner(map[string]execResult{
		"incus": {stderr: "Error: Instance not found\n", code: 1},
	})

	err := r.Delete(context.Background(), "ghost")
	var perr *ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProcessError", err)
	}
	if perr.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", perr.ExitCode)
	}
	if perr.Stderr != "Error: Instance not found" {
		t.Fatalf("Stderr = %q", perr.Stderr)
	}
	if !strings.Contains(perr.Error(), "Instance not found") {
		t.Fatalf("message %q does not carry stderr", perr.Error())
	}
}

func TestProcessErrorFallsBackToStdout(t *testing.T) {
	r, _ := newFakeRunner(map[string]execResult{
		"incus": {stdout: "refusing to delete\n", code: 1},
	})

	err := r.Delete(context.Background(), "web")
	var perr *ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProcessError", err)
	}
	if !strings.Contains(perr.Error(), "refusing to delete") {
		t.Fatalf("message %q does not fall back to stdout", perr.Error())
	}
}

func TestExecFailurePropagates(t *testing.T) {
	sentinel := errors.New("binary missing")
	r, _ := newFakeRunner(map[string]execResult{
		"incus": {err: sentinel},
	})

	err := r.Launch(context.Background(), "images:alpine", "a")
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want wrapped sentinel", err)
	}
}

func TestProfileNames(t *testing.T) {
	r, fake := newFakeRunner(map[string]execResult{
		"incus": {stdout: "name,description,used_by\nweb,,3\ndb,,1\ndefault,,9\n"},
	})

	names, err := r.ProfileNames(context.Background())
	if err != nil {
		t.Fatalf("ProfileNames: %v", err)
	}
	if len(names) != 2 || names[0] != "web" || names[1] != "db" {
		t.Fatalf("names = %v, want [web db]", names)
	}
	got := strings.Join(fake.calls[0].args, " ")
	if got != "profile list --format csv" {
		t.Fatalf("args = %q", got)
	}
}

func TestAvailableVersionsPrefersApt(t *testing.T) {
	r, fake := newFakeRunner(map[string]execResult{
		"apt-cache": {stdout: " incus | 1:6.0.2-1 | http://archive.ubuntu.com noble/universe\n"},
	})

	versions := r.AvailableVersions(context.Background())
	if len(versions) != 1 || versions[0] != "1:6.0.2-1" {
		t.Fatalf("versions = %v", versions)
	}
	for _, c := range fake.calls {
		if c.bin == "snap" {
			t.Fatal("snap consulted despite apt success")
		}
	}
}

func TestAvailableVersionsFallsBackToSnap(t *testing.T) {
	r, _ := newFakeRunner(map[string]execResult{
		"apt-cache": {code: 100},
		"snap":      {stdout: "Name Version Publisher Notes Summary\nincus 6.17 zabbly - Container manager\n"},
	})

	versions := r.AvailableVersions(context.Background())
	if len(versions) != 1 || versions[0] != "6.17" {
		t.Fatalf("versions = %v", versions)
	}
}

func TestAvailableVersionsNoneFound(t *testing.T) {
	r, _ := newFakeRunner(map[string]execResult{
		"apt-cache": {err: errors.New("not installed")},
		"snap":      {err: errors.New("not installed")},
	})

	if versions := r.AvailableVersions(context.Background()); versions != nil {
		t.Fatalf("versions = %v, want nil", versions)
	}
}
