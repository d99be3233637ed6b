package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	accessTableFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestAccessCheck(t *testing.T) {
	out := runCommand(t, "access", "check", "member", "/donations")
	if !strings.Contains(out, "deny") || !strings.Contains(out, "redirect to /dashboard") {
		t.Errorf("expected denial with fallback, got %q", out)
	}

	out = runCommand(t, "access", "check", "admin", "/members/42/edit")
	if !strings.HasPrefix(out, "allow") {
		t.Errorf("expected admin to reach member pages, got %q", out)
	}

	out = runCommand(t, "access", "check", "pastor", "/dashboard")
	if !strings.HasPrefix(out, "deny") {
		t.Errorf("expected unknown role to be denied, got %q", out)
	}
}

func TestAccessListWithTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.yaml")
	table := "paths:\n  /dashboard: [member, user]\n  /forum: [member]\n  /members: [user]\n"
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCommand(t, "access", "list", "member", "--table", path)
	if strings.TrimSpace(out) != "/dashboard\n/forum" {
		t.Errorf("unexpected paths %q", out)
	}
}
