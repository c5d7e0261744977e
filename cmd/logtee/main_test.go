package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	return string(data)
}

func TestRun_RecordsStdin_When_NoCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "piped.html")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-o", path, "-section", "Build"},
		strings.NewReader("compiling\n\x1b[32mok\x1b[0m\n"), &stdout, &stderr)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; stderr:\n%s", code, stderr.String())
	}
	if stdout.String() != "compiling\n\x1b[32mok\x1b[0m\n" {
		t.Errorf("stdout not passed through: %q", stdout.String())
	}
	doc := readDoc(t, path)
	if !strings.Contains(doc, `<h1 id="build">Build</h1>`) {
		t.Error("missing section heading")
	}
	if !strings.Contains(doc, `<div class="stdout"><pre>compiling`+"\n"+`<span style="color:#00aa00">ok</span>`) {
		t.Errorf("missing styled output; got:\n%s", doc)
	}
	if !strings.Contains(stderr.String(), "logtee: wrote "+path) {
		t.Errorf("missing completion line; stderr:\n%s", stderr.String())
	}
}

func TestRun_ReturnsCommandExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cmd.html")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-o", path, "--", "sh", "-c", "echo hi; echo oops >&2; exit 4"},
		strings.NewReader(""), &stdout, &stderr)

	if code != 4 {
		t.Fatalf("expected exit code 4, got %d", code)
	}
	doc := readDoc(t, path)
	if !strings.Contains(doc, "<title>sh</title>") {
		t.Error("title should default to the command name")
	}
	if !strings.Contains(doc, `<div class="stderr"><pre>oops`) {
		t.Errorf("missing stderr block; got:\n%s", doc)
	}
	if !strings.Contains(stdout.String(), "hi\n") {
		t.Errorf("stdout not passed through: %q", stdout.String())
	}
}

func TestRun_PrintsVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-version"}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "logtee dev") {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}

func TestRun_RejectsUnknownFlag(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-bogus"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestRun_Fails_When_ConfigMissing(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, strings.NewReader(""), &stdout, &stderr)
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}
