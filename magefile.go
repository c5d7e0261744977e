//go:build mage

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/dkoosis/logtee/logtee"
)

const (
	binDir     = "bin"
	binPath    = binDir + "/logtee"
	versionPkg = "github.com/dkoosis/logtee/internal/version"
)

// Default target - build the binary
var Default = Build

// Build builds the logtee binary with version metadata
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binPath, "./cmd/logtee")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binDir)
}

// QA runs all quality checks, recording their output in bin/qa.html
func QA() error {
	s, err := logtee.New(binDir+"/qa.html", logtee.Options{Title: "logtee QA", Terminal: os.Stderr})
	if err != nil {
		return err
	}
	defer s.Close()

	steps := []struct {
		label    string
		cmd      []string
		optional bool
	}{
		{"Go Format", []string{"gofmt", "-l", "."}, false},
		{"Go Vet", []string{"go", "vet", "./..."}, false},
		{"Staticcheck", []string{"staticcheck", "./..."}, true},
		{"Golangci-lint", []string{"golangci-lint", "run", "--timeout=5m", "./..."}, true},
		{"Tests", []string{"go", "test", "-race", "./..."}, false},
		{"Go Build", []string{"go", "build", "./..."}, false},
	}
	for _, step := range steps {
		if err := s.StartSection(step.label); err != nil {
			return err
		}
		code, err := logtee.Run(context.Background(), s, step.cmd[0], step.cmd[1:]...)
		if err == nil {
			continue
		}
		if step.optional && code == 127 {
			fmt.Fprintf(os.Stderr, "⚠ %s not found, skipping\n", step.cmd[0])
			continue
		}
		return fmt.Errorf("%s failed: %w", step.label, err)
	}
	fmt.Println("✓ QA complete, see", s.Path())
	return nil
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() {
	mg.Deps(Lint.Format, Lint.Vet, Lint.Golangci)
}

// Format checks code formatting
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint
func (Lint) Golangci() error {
	err := sh.RunV("golangci-lint", "run", "--timeout=5m", "./...")
	if errors.Is(err, exec.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "⚠ golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
		return nil
	}
	return err
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Coverage runs tests with coverage
func (Test) Coverage() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "test", "-coverprofile="+binDir+"/coverage.out", "./...")
}

// Race runs tests with race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

func ldflags() string {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	tag, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		tag = "dev"
	}
	flags := []string{
		"-s", "-w",
		"-X", versionPkg + ".Version=" + tag,
		"-X", versionPkg + ".CommitHash=" + commit,
		"-X", versionPkg + ".BuildDate=" + time.Now().UTC().Format(time.RFC3339),
	}
	return strings.Join(flags, " ")
}
