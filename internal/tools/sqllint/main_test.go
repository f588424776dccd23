package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QOne = `--sql 3e829bdb-4b47-4c93-8084-30ecc162e891\nselect 1;`\n\nconst Label = \"not sql\"\n")
	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
}

func TestRunReportsViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package q\n\nconst QMissing = `select name from asset_providers`\n\nconst QFirst = `--sql 3e829bdb-4b47-4c93-8084-30ecc162e891\nselect 1;`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QCopy = `--sql 3e829bdb-4b47-4c93-8084-30ecc162e891\ndelete from asset_providers;`\n")
	writeGo(t, dir, "b_test.go", "package q\n\nconst qIgnored = `select 1`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	out := stderr.String()
	for _, want := range []string{"QMissing", "already used by QFirst"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stderr missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "qIgnored") {
		t.Fatalf("test files must be skipped:\n%s", out)
	}
}

func TestRunMissingTarget(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{filepath.Join(t.TempDir(), "nope")}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}

func TestRepositoryQueriesAreMarked(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{filepath.Join("..", "..", "sqlinline")}, &stderr); code != 0 {
		t.Fatalf("sqlinline violations:\n%s", stderr.String())
	}
}
