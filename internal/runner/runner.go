// Package runner executes user-authored solution files in an external
// process and captures the produced answer.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liamcryan/ieuler/internal/templates"
)

// Runner executes solution files with a bounded timeout.
type Runner struct {
	// Timeout bounds each execution; expired runs are failed executions,
	// never failed submissions.
	Timeout time.Duration
}

// New returns a Runner with the given timeout.
func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run executes filename with the interpreter registered for language and
// returns the trimmed stdout as the candidate answer. A non-zero exit or
// an expired timeout is reported as an error carrying stderr.
func (r *Runner) Run(ctx context.Context, language, filename string) (string, error) {
	tmpl, ok := templates.Get(language)
	if !ok {
		return "", fmt.Errorf("no template registered for language %q", language)
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	argv := append(append([]string{}, tmpl.Command...), filename)
	cmd := commandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("running %s timed out after %s", filename, r.Timeout)
		}
		return "", fmt.Errorf("running %s: %w: %s", filename, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
