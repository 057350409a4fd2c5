package esptool

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"os/exec"
)

const maxLineSize = 1 << 20

// Process is one running esptool invocation with stderr merged into stdout.
type Process struct {
	cmd    *exec.Cmd
	output io.ReadCloser
	used   bool
}

// Start launches name with args. env replaces the inherited environment
// when non-nil.
func Start(name string, env []string, args ...string) (*Process, error) {
	cmd := exec.Command(name, args...)
	if env != nil {
		cmd.Env = env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = cmd.Stdout // merge stderr into stdout

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Process{cmd: cmd, output: stdout}, nil
}

// Lines yields output lines as the process writes them. The sequence reads
// the live pipe, so it can be ranged over once per Process; later calls
// yield nothing.
func (p *Process) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if p.used {
			return
		}
		p.used = true

		scanner := bufio.NewScanner(p.output)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		scanner.Split(scanLines)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}
}

// Wait drains any unread output and blocks until the process exits. A
// non-zero exit is reported through code with a nil error; err is only set
// when the exit status could not be determined.
func (p *Process) Wait() (code int, err error) {
	p.used = true
	_, _ = io.Copy(io.Discard, p.output)

	err = p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// scanLines splits on \n, \r\n or a bare \r. esptool redraws its progress
// line with carriage returns.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// need one more byte to tell \r from \r\n
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
