// Package report drives the external structured-data report generator and
// parses its output into named sections.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kovalenq/pressroom/pkg/models"
)

// DefaultTimeout is the wall-clock budget for one generator run.
const DefaultTimeout = 60 * time.Second

// Runner is the interface for producing report sections for a ticker.
type Runner interface {
	Generate(ctx context.Context, tickerID int64, exchange string) ([]models.TextSection, error)
}

// ExecRunner runs the generator as a subprocess: `<command> <tickerID>
// <exchange>`. The generator's internals are opaque; only its output
// contract (see ParseSections) matters here.
type ExecRunner struct {
	command      string
	workDir      string
	sectionCount int
	timeout      time.Duration
}

// NewExecRunner creates an ExecRunner. A non-positive timeout falls back to
// DefaultTimeout.
func NewExecRunner(command, workDir string, sectionCount int, timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{
		command:      command,
		workDir:      workDir,
		sectionCount: sectionCount,
		timeout:      timeout,
	}
}

func (r *ExecRunner) Generate(ctx context.Context, tickerID int64, exchange string) ([]models.TextSection, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, strconv.FormatInt(tickerID, 10), exchange)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("report generator timeout after %s (ticker %d, exchange %s)", r.timeout, tickerID, exchange)
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "no stderr output"
		}
		return nil, fmt.Errorf("report generator failed after %s: %v: %s", time.Since(start).Round(time.Millisecond), err, detail)
	}

	sections, err := ParseSections(stdout.String(), r.sectionCount)
	if err != nil {
		return nil, err
	}
	return sections, nil
}

var _ Runner = (*ExecRunner)(nil)

// ErrMalformedOutput marks generator output that violates the section
// contract. Always terminal for the owning job: malformed output is assumed
// deterministic for the same input, so a retry would not help.
var ErrMalformedOutput = errors.New("malformed report generator output")
