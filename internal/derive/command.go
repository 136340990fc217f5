package derive

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.trai.ch/zerr"
)

const (
	// stderrLimit bounds how much tool stderr is kept for the failure log.
	stderrLimit = 4 << 10
	// waitDelay bounds how long Wait blocks on pipes held open by orphaned children.
	waitDelay = 2 * time.Second
)

// CommandTool runs an external program to completion; a non-zero exit is a failure.
type CommandTool struct {
	Program string
	// Args builds the argument list for one source/target pair.
	Args   func(source, target string) []string
	logger *logrus.Logger
}

// NewThumbnailTool returns an ImageMagick-compatible resize pipeline: scale to 10%,
// never below 200x200, never above 500x500, quality 20%.
func NewThumbnailTool(program string, logger *logrus.Logger) *CommandTool {
	return &CommandTool{
		Program: program,
		Args:    ThumbnailArgs,
		logger:  logger,
	}
}

// NewRenderTool returns a pandoc-compatible converter producing a standalone HTML
// document that links stylesheet.
func NewRenderTool(program, stylesheet string, logger *logrus.Logger) *CommandTool {
	return &CommandTool{
		Program: program,
		Args: func(source, target string) []string {
			return RenderArgs(source, target, stylesheet)
		},
		logger: logger,
	}
}

// ThumbnailArgs is the fixed resize pipeline passed to the thumbnail program.
func ThumbnailArgs(source, target string) []string {
	return []string{
		source,
		"-resize", "10%",
		"-resize", "200x200<",
		"-resize", "500x500>",
		"-quality", "20%",
		target,
	}
}

// RenderArgs is the argument list passed to the render program.
func RenderArgs(source, target, stylesheet string) []string {
	return []string{source, "-s", "--css", stylesheet, "-o", target}
}

// Available reports whether Program can be found on PATH.
func (t *CommandTool) Available() error {
	if _, err := exec.LookPath(t.Program); err != nil {
		return zerr.With(zerr.Wrap(err, "derive program not found"), "program", t.Program)
	}
	return nil
}

// Generate runs the program and waits for it. ctx cancellation kills the process.
func (t *CommandTool) Generate(ctx context.Context, source, target string) error {
	if t.Program == "" {
		return zerr.New("derive program is empty")
	}
	args := t.Args(source, target)

	//nolint:gosec // program and arguments come from trusted configuration and resolved paths
	cmd := exec.CommandContext(ctx, t.Program, args...)
	stderr := &limitedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if t.logger != nil {
			t.logger.WithError(err).WithFields(logrus.Fields{
				"action":    "derive_command",
				"program":   t.Program,
				"source":    source,
				"exit_code": exitCode,
				"stderr":    strings.TrimSpace(stderr.String()),
			}).Warn("derive_command_failed")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return zerr.With(zerr.Wrap(err, "derive command failed"), "exit_code", exitCode)
	}
	return nil
}

type limitedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room > 0 {
		if len(p) > room {
			b.Buffer.Write(p[:room])
		} else {
			b.Buffer.Write(p)
		}
	}
	return len(p), nil
}
