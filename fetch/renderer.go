package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/justapithecus/stratum/ipc"
	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/types"
)

// stderrTailLimit bounds how much renderer stderr is kept for diagnostics.
const stderrTailLimit = 4 * 1024

// RendererEngine fetches archive URLs through an external rendering
// subprocess, one process per attempt. The request goes to the subprocess
// stdin as a single frame and the response comes back on stdout as a single
// frame; stderr is captured for diagnostics.
type RendererEngine struct {
	// Path is the renderer binary.
	Path string
	// Args are extra arguments passed before the protocol starts.
	Args []string

	logger *log.Logger
}

// NewRendererEngine creates a rendering-subprocess fetch engine.
func NewRendererEngine(path string, args []string, logger *log.Logger) *RendererEngine {
	if logger == nil {
		logger = log.Nop()
	}
	return &RendererEngine{Path: path, Args: args, logger: logger}
}

// Fetch runs one renderer subprocess for the request. Navigation failures
// reported by the renderer, and renderer crashes, classify as
// ErrTransientNavigation so the retry wrapper treats them as recoverable.
func (e *RendererEngine) Fetch(ctx context.Context, req *types.FetchRequest) (*types.FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Path, e.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start renderer: %w", err)
	}

	if err := ipc.NewFrameEncoder(stdin).WriteFrame(ipc.NewFetchRequestFrame(req)); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, e.classify(ctx, fmt.Errorf("failed to send fetch request: %w", err), &stderr)
	}
	// Closing stdin tells the renderer no further requests follow.
	_ = stdin.Close()

	frame, err := ipc.NewFrameDecoder(stdout).ReadFetchResponse()
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, e.classify(ctx, fmt.Errorf("failed to read fetch response: %w", err), &stderr)
	}

	if err := cmd.Wait(); err != nil {
		return nil, e.classify(ctx, fmt.Errorf("renderer exited: %w", err), &stderr)
	}

	if frame.Error != "" {
		return nil, e.classifyFrame(req.URL, frame)
	}
	if frame.Status >= 400 {
		return nil, &FetchError{URL: req.URL, Status: frame.Status, Result: frame.Result()}
	}
	return frame.Result(), nil
}

// classify maps subprocess-level failures. Caller cancellation and the
// attempt deadline keep their own kinds; everything else a broken renderer
// produces counts as a transient navigation failure.
func (e *RendererEngine) classify(ctx context.Context, err error, stderr *bytes.Buffer) error {
	if tail := stderrTail(stderr); tail != "" {
		e.logger.Warn("renderer failed", map[string]any{
			"error":  err.Error(),
			"stderr": tail,
		})
	}

	switch ctx.Err() {
	case context.Canceled:
		return errors.Join(ErrCancelled, err)
	case context.DeadlineExceeded:
		return errors.Join(ErrTimeout, err)
	default:
		return errors.Join(ErrTransientNavigation, err)
	}
}

// classifyFrame maps failures the renderer reported in-protocol.
func (e *RendererEngine) classifyFrame(url string, frame *ipc.FetchResponseFrame) error {
	err := fmt.Errorf("renderer error for %s: %s", url, frame.Error)
	if frame.ErrorKind == ipc.ErrorKindTimeout {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrTransientNavigation, err)
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}
