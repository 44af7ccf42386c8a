package instance

import (
	"slices"
	"testing"
)

func TestCmdGroupShape(t *testing.T) {
	socket := ""
	cmd := Cmd(&socket)
	if cmd.Use != "instance" {
		t.Fatalf("unexpected use: %q", cmd.Use)
	}
	if !slices.Equal(cmd.Aliases, []string{"inst"}) {
		t.Fatalf("unexpected aliases: %#v", cmd.Aliases)
	}

	want := []string{"delete", "launch", "list", "restart", "start", "stop", "toggle", "watch"}
	got := make([]string, 0, len(want))
	for _, sub := range cmd.Commands() {
		got = append(got, sub.Name())
	}
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Fatalf("subcommands = %v, want %v", got, want)
	}
}

func TestListCmdShape(t *testing.T) {
	socket := ""
	cmd := listCmd(&socket)
	if !slices.Equal(cmd.Aliases, []string{"ls"}) {
		t.Fatalf("unexpected aliases: %#v", cmd.Aliases)
	}
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Fatal("expected args validation error for extra args")
	}
	if cmd.Flags().Lookup("json") == nil {
		t.Fatal("expected --json flag")
	}
}

func TestLaunchCmdShape(t *testing.T) {
	socket := ""
	cmd := launchCmd(&socket)
	if cmd.Use != "launch <name>" {
		t.Fatalf("unexpected use: %q", cmd.Use)
	}

	if err := cmd.Args(cmd, nil); err == nil {
		t.Fatal("expected args validation error for missing args")
	}
	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Fatal("expected args validation error for too many args")
	}
	if err := cmd.Args(cmd, []string{"a"}); err != nil {
		t.Fatalf("expected one arg to be accepted, got %v", err)
	}

	for _, flag := range []string{"image", "profile"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Fatalf("expected --%s flag", flag)
		}
	}
}

func TestDeleteCmdShape(t *testing.T) {
	socket := ""
	cmd := deleteCmd(&socket)
	if cmd.Use != "delete <name>" {
		t.Fatalf("unexpected use: %q", cmd.Use)
	}
	if !slices.Equal(cmd.Aliases, []string{"rm"}) {
		t.Fatalf("unexpected aliases: %#v", cmd.Aliases)
	}
	for _, flag := range []string{"stop", "yes"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Fatalf("expected --%s flag", flag)
		}
	}
}
