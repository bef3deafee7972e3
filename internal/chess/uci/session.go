package uci

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultExitTimeout = 10 * time.Second
	maxLineBytes       = 1 << 20
)

type RunRequest struct {
	EnginePath  string
	WorkingDir  string
	Script      string
	ExitTimeout time.Duration
}

// Transcript is what one engine exchange produced: stdout up to and
// including the "bestmove" line, and whatever the engine wrote to stderr.
type Transcript struct {
	Output string
	Errors string
}

// Failure applies the strict policy: any stderr output, even a bare
// newline, is an engine failure.
func (t Transcript) Failure() error {
	if t.Errors == "" {
		return nil
	}
	return &EngineFailure{Reason: "engine wrote to stderr", Stderr: t.Errors}
}

// Run launches the engine in req.WorkingDir, sends the script, reads until
// "bestmove", sends "quit" and waits for the process to exit. The working
// directory is set on the child only; the caller's cwd is left alone, so
// concurrent Runs are safe.
func Run(ctx context.Context, req RunRequest) (Transcript, error) {
	if strings.TrimSpace(req.EnginePath) == "" {
		return Transcript{}, fmt.Errorf("engine path required")
	}
	timeout := req.ExitTimeout
	if timeout <= 0 {
		timeout = DefaultExitTimeout
	}

	cmd := exec.CommandContext(ctx, req.EnginePath)
	cmd.Dir = req.WorkingDir
	// Engines launched through a wrapper leave descendants holding our
	// pipes; kill the whole group and stop waiting on the pipes after timeout.
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = timeout
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Transcript{}, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return Transcript{}, fmt.Errorf("create stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return Transcript{}, fmt.Errorf("start engine: %w", err)
	}

	output, exchangeErr := exchange(stdin, stdout, req.Script)
	_, _ = io.WriteString(stdin, "quit\n")
	stdin.Close()

	waitErr := waitWithTimeout(cmd, timeout)
	t := Transcript{Output: output, Errors: stderr.String()}
	if exchangeErr != nil {
		if ctx.Err() != nil {
			return t, fmt.Errorf("read engine output: %w", ctx.Err())
		}
		return t, exchangeErr
	}
	if waitErr != nil {
		return t, waitErr
	}
	return t, nil
}

// exchange writes the whole script and then reads lines until one starts
// with "bestmove". Every line read is returned newline-terminated.
func exchange(w io.Writer, r io.Reader, script string) (string, error) {
	if !strings.HasSuffix(script, "\n") {
		script += "\n"
	}
	if _, err := io.WriteString(w, script); err != nil {
		return "", fmt.Errorf("send script: %w", err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var out strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		out.WriteString(line)
		out.WriteByte('\n')
		if strings.HasPrefix(line, "bestmove") {
			return out.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return out.String(), fmt.Errorf("read engine output: %w", err)
	}
	return out.String(), &EngineFailure{Reason: "engine output ended before bestmove"}
}

func waitWithTimeout(cmd *exec.Cmd, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if errors.Is(err, exec.ErrWaitDelay) {
			// the engine exited but something it started still holds stderr
			_ = killProcessGroup(cmd)
			return fmt.Errorf("%w after %s: engine output still open", ErrProtocolTimeout, timeout)
		}
		if err != nil {
			return &EngineFailure{Reason: "engine exit: " + err.Error()}
		}
		return nil
	case <-timer.C:
		_ = killProcessGroup(cmd)
		<-done
		return fmt.Errorf("%w after %s", ErrProtocolTimeout, timeout)
	}
}

// BuildScript assembles the fixed analysis command sequence.
func BuildScript(fen string, multiPV, depth int) (string, error) {
	if strings.TrimSpace(fen) == "" {
		return "", fmt.Errorf("fen required")
	}
	if multiPV <= 0 {
		return "", fmt.Errorf("multipv must be > 0: %d", multiPV)
	}
	if depth <= 0 {
		return "", fmt.Errorf("depth must be > 0: %d", depth)
	}
	cmds := []string{
		"ucinewgame",
		"setoption name MultiPV value " + strconv.Itoa(multiPV),
		"position fen " + strings.TrimSpace(fen),
		strings.Join([]string{"go", "depth", strconv.Itoa(depth)}, " "),
	}
	return strings.Join(cmds, "\n"), nil
}
