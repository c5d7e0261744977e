// logtee records a command's terminal output in a live HTML log.
//
// Usage:
//
//	logtee [flags] -- go test ./...
//	make build 2>&1 | logtee -name build
//
// With a command, logtee runs it, passes its output through to the
// terminal and records stdout and stderr as separate streams. Without one
// it records its own stdin as stdout. The document is valid HTML after
// every write, so it can be opened while the command is still running.
//
// Defaults come from .logtee.yaml in the working directory or a parent;
// flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dkoosis/logtee/internal/version"
	"github.com/dkoosis/logtee/logtee"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("logtee", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outFlag := fs.String("o", "", "Document path (default: {dir}/{name}{suffix}.html)")
	nameFlag := fs.String("name", "", "Document name (default: command name, or \"logtee\")")
	titleFlag := fs.String("title", "", "Document title (default: name)")
	dirFlag := fs.String("dir", "", "Output directory (overrides config)")
	configFlag := fs.String("config", "", "Config file (default: nearest .logtee.yaml)")
	sectionFlag := fs.String("section", "", "Section heading written before the output")
	themeFlag := fs.String("theme", "", "Terminal theme: default, orca, mono")
	noAnchorsFlag := fs.Bool("no-anchors", false, "Do not anchor headings found in the output")
	debugFlag := fs.Bool("debug", false, "Log diagnostics to stderr")
	versionFlag := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "logtee: %v\n", err)
		return 2
	}
	if *dirFlag != "" {
		cfg.Dir = *dirFlag
	}
	if *themeFlag != "" {
		cfg.Theme = *themeFlag
	}

	command := fs.Args()
	name := *nameFlag
	if name == "" && len(command) > 0 {
		name = filepath.Base(command[0])
	}
	if name == "" {
		name = "logtee"
	}

	opts := logtee.Options{
		Config:        cfg,
		Title:         *titleFlag,
		Terminal:      stderr,
		NoAutoAnchors: *noAnchorsFlag,
		Debug:         *debugFlag,
	}
	session, err := openSession(*outFlag, name, opts)
	if err != nil {
		fmt.Fprintf(stderr, "logtee: %v\n", err)
		return 1
	}
	// Closing ends the open block; the document is already complete on disk.
	defer func() {
		if err := session.Close(); err != nil {
			fmt.Fprintf(stderr, "logtee: %v\n", err)
		}
	}()

	if *sectionFlag != "" {
		if err := session.StartSection(*sectionFlag); err != nil {
			fmt.Fprintf(stderr, "logtee: %v\n", err)
			return 1
		}
	}

	if len(command) == 0 {
		return recordStdin(session, stdin, stdout, stderr)
	}
	return runCommand(session, command, stdin, stdout, stderr)
}

func loadConfig(path string) (*logtee.Config, error) {
	if path == "" {
		return logtee.LoadConfig(), nil
	}
	return logtee.LoadConfigFile(path)
}

func openSession(path, name string, opts logtee.Options) (*logtee.Session, error) {
	if path != "" {
		if opts.Title == "" {
			opts.Title = name
		}
		return logtee.New(path, opts)
	}
	return logtee.Create(name, opts)
}

// recordStdin copies stdin to stdout, recording it as it goes.
func recordStdin(session *logtee.Session, stdin io.Reader, stdout, stderr io.Writer) int {
	tee := session.Tee(logtee.Stdout, stdout)
	_, copyErr := io.Copy(tee, stdin)
	if err := errors.Join(copyErr, tee.Flush()); err != nil {
		fmt.Fprintf(stderr, "logtee: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "logtee: wrote %s\n", session.Path())
	return 0
}

func runCommand(session *logtee.Session, command []string, stdin io.Reader, stdout, stderr io.Writer) int {
	code, err := logtee.RunCommand(context.Background(), session, logtee.Command{
		Name:           command[0],
		Args:           command[1:],
		Stdin:          stdin,
		Stdout:         stdout,
		Stderr:         stderr,
		ForwardSignals: true,
	})
	if err != nil && !errors.Is(err, logtee.ErrNonZeroExit) {
		fmt.Fprintf(stderr, "logtee: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	fmt.Fprintf(stderr, "logtee: wrote %s\n", session.Path())
	return code
}
