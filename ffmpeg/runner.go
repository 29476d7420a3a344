package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Status classifies how a streamed command ended. Cancellation is its own
// outcome: the caller asked for the stop, so the exit code is meaningless
// and no diagnostic tail applies.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusCancelled
)

// tailLines is how many non-progress output lines are retained for
// diagnostics. ffmpeg's actual error message is usually near the end of its
// stderr, buried in per-frame status noise.
const tailLines = 20

// Result is the outcome of one streamed command.
type Result struct {
	Status   Status
	ExitCode int
	// Tail holds the last non-progress output lines, for display when the
	// command fails.
	Tail []string
}

// Runner spawns external commands. HideConsole suppresses console-window
// creation on Windows; it is a field rather than a package global so the
// behavior is explicit per construction site.
type Runner struct {
	HideConsole bool
}

// NewRunner returns a Runner with console-window suppression enabled, the
// right default for a desktop app.
func NewRunner() *Runner {
	return &Runner{HideConsole: true}
}

// Stream runs a command with stdout and stderr combined into one text
// stream, invoking onLine synchronously for every line as it arrives.
// Before each line it checks cancel; if set, the child is terminated and
// the result is StatusCancelled rather than the real exit status. onLine
// may be nil. A non-zero exit is returned as data, never as an error.
func (r *Runner) Stream(name string, args []string, cancel *Cancel, onLine func(string)) Result {
	cmd := exec.Command(name, args...)
	hideConsole(cmd, r.HideConsole)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Status: StatusFailed, ExitCode: -1, Tail: []string{err.Error()}}
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return Result{Status: StatusFailed, ExitCode: -1, Tail: []string{err.Error()}}
	}

	var tail []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanCarriageLines)

	cancelled := false
	for scanner.Scan() {
		if cancel.Stopped() {
			cancelled = true
			_ = cmd.Process.Kill()
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !isProgressNoise(line) {
			tail = append(tail, line)
			if len(tail) > tailLines {
				tail = tail[len(tail)-tailLines:]
			}
		}
		if onLine != nil {
			onLine(line)
		}
	}

	err = cmd.Wait()
	if cancelled || cancel.Stopped() {
		return Result{Status: StatusCancelled, ExitCode: -1}
	}
	if err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return Result{Status: StatusFailed, ExitCode: code, Tail: tail}
	}
	return Result{Status: StatusOK, Tail: tail}
}

// Capture runs a command to completion and returns its stdout. Intended for
// short one-shot queries (probes, version checks); timeout bounds hangs.
func (r *Runner) Capture(name string, args []string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	hideConsole(cmd, r.HideConsole)
	// Killing the direct child does not close the stdout pipe if it left a
	// descendant behind; WaitDelay stops Wait from blocking on that pipe
	// past the deadline.
	cmd.WaitDelay = time.Second

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

// Begin starts a command without waiting for it, for side-processes with
// their own lifecycle (the live-preview generator). The caller owns
// termination.
func (r *Runner) Begin(name string, args []string) (*exec.Cmd, error) {
	cmd := exec.Command(name, args...)
	hideConsole(cmd, r.HideConsole)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Terminate kills a side-process started with Begin and reaps it. Safe on
// nil and on already-exited processes.
func Terminate(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
}

// scanCarriageLines splits on \n or \r. ffmpeg rewrites its status line in
// place with bare carriage returns, so a plain line scanner would sit on
// one enormous token until the encode finishes.
func scanCarriageLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, bytes.TrimRight(data[:i], "\r\n"), nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
