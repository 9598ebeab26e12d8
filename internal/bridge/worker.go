package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// Worker owns a long-lived subprocess and issues request/response calls
// over its stdio. The process starts lazily on the first call and restarts
// on the next call after a failure, so one bad exchange never poisons the
// rest of an indexing run. Calls are serialized; the protocol has no
// multiplexing.
type Worker struct {
	command string
	args    []string
	logger  *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan []byte
	readErr chan error
	done    chan struct{}
	nextID  uint64
}

// Lines can carry whole source files, so the scanner buffer is generous.
const maxLineBytes = 16 << 20

func NewWorker(command string, args ...string) *Worker {
	return &Worker{
		command: command,
		args:    args,
		logger:  slog.Default(),
	}
}

// SetLogger replaces the worker's logger. Call before the first Call.
func (w *Worker) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Call sends one request and decodes its response into result (which may be
// nil for calls without a payload). Context cancellation kills the process;
// the next call starts a fresh one.
func (w *Worker) Call(ctx context.Context, method string, params any, result any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cmd == nil {
		if err := w.start(); err != nil {
			return fmt.Errorf("start worker %q: %w", w.command, err)
		}
	}

	w.nextID++
	id := w.nextID

	req := Request{JSONRPC: Version, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	payload = append(payload, '\n')

	if _, err := w.stdin.Write(payload); err != nil {
		w.reset()
		return fmt.Errorf("write to worker: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.reset()
			return ctx.Err()
		case err := <-w.readErr:
			w.reset()
			return fmt.Errorf("worker output: %w", err)
		case line := <-w.lines:
			var resp Response
			if err := json.Unmarshal(line, &resp); err != nil {
				w.reset()
				return fmt.Errorf("decode worker response: %w", err)
			}
			if resp.ID != id {
				// Reply to an abandoned call; drop it.
				w.logger.Debug("discarding stale worker reply", "got", resp.ID, "want", id)
				continue
			}
			if resp.Error != nil {
				return resp.Error
			}
			if result != nil && resp.Result != nil {
				if err := json.Unmarshal(resp.Result, result); err != nil {
					return fmt.Errorf("decode worker result: %w", err)
				}
			}
			return nil
		}
	}
}

// Ping checks the worker is alive, starting it if needed.
func (w *Worker) Ping(ctx context.Context) error {
	return w.Call(ctx, MethodPing, nil, nil)
}

// Close stops the subprocess if one is running.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
	return nil
}

// start launches the subprocess and its stdout pump. Caller holds w.mu.
func (w *Worker) start() error {
	cmd := exec.Command(w.command, w.args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	lines := make(chan []byte, 1)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	go pump(stdout, lines, readErr, done)

	w.cmd = cmd
	w.stdin = stdin
	w.lines = lines
	w.readErr = readErr
	w.done = done
	w.logger.Debug("worker started", "command", w.command, "pid", cmd.Process.Pid)
	return nil
}

func pump(r io.Reader, lines chan<- []byte, readErr chan<- error, done <-chan struct{}) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		select {
		case lines <- line:
		case <-done:
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case readErr <- err:
	case <-done:
	}
}

// reset kills the subprocess and clears state so the next call restarts it.
// Caller holds w.mu.
func (w *Worker) reset() {
	if w.cmd == nil {
		return
	}
	_ = w.stdin.Close()
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	close(w.done)
	cmd := w.cmd
	go func() { _ = cmd.Wait() }()
	w.cmd = nil
	w.stdin = nil
	w.lines = nil
	w.readErr = nil
	w.done = nil
}
