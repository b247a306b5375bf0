package orchestrator

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/jvlmtest/internal/failure"
	"github.com/danmuck/jvlmtest/internal/lang"
	"github.com/danmuck/jvlmtest/internal/tools"
)

func (o *Orchestrator) javap(ctx context.Context, tests []lang.Test) error {
	var failures []failure.Failure
	var artifacts []string
	err := o.compileEach(ctx, tests, func(t lang.Test, artifact string, f failure.Failure) error {
		if f != nil {
			failures = append(failures, f)
		} else {
			artifacts = append(artifacts, artifact)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		failure.ReportShort(o.cfg.Stdout, failures)
		return &ExitError{Code: ExitFailures}
	}

	var entries []string
	for _, a := range artifacts {
		classes, err := classEntries(a)
		if err != nil {
			return err
		}
		entries = append(entries, classes...)
	}
	if len(entries) == 0 {
		o.log.Warn().Int("archives", len(artifacts)).Msg("no class entries to disassemble")
		return nil
	}

	cmd := tools.Command{
		Name:   o.cfg.Javap.Command,
		Args:   append(append([]string{}, o.cfg.Javap.Args...), entries...),
		Stdout: o.cfg.Stdout,
		Stderr: o.cfg.Stderr,
	}
	res, err := o.cfg.Runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	switch {
	case res.ExitCode > 0:
		return &ExitError{Code: res.ExitCode}
	case res.ExitCode < 0 || res.TimedOut:
		// Killed by a signal; there is no status to forward.
		return &ExitError{Code: ExitFailures}
	}
	return nil
}

// classEntries lists an archive's class files as jar: URIs.
func classEntries(archive string) ([]string, error) {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return nil, err
	}
	r, err := zip.OpenReader(abs)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", abs, err)
	}
	defer r.Close()

	prefix := "jar:file:" + filepath.ToSlash(abs) + "!/"
	var out []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		out = append(out, prefix+f.Name)
	}
	return out, nil
}
