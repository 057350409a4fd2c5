package esptool

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/buckleypaul/espfleet/internal/log"
)

// ExitError reports a non-zero esptool exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("esptool exited with code %d", e.Code)
}

// Tool runs esptool and echoes its output to a console writer.
type Tool struct {
	Path string
	Env  []string
	Out  io.Writer
	log  log.Logger
}

// New returns a Tool for inst that writes tool output to out.
func New(inst Installation, out io.Writer, logger log.Logger) *Tool {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Tool{
		Path: inst.Path,
		Env:  inst.Env,
		Out:  out,
		log:  logger.WithName("esptool"),
	}
}

// Run executes the tool with args, copying each output line to Out as it
// arrives. It reports true only for exit code 0; launch failures and
// non-zero exits are logged and reported as false.
func (t *Tool) Run(args ...string) bool {
	start := time.Now()
	t.log.Info("running command", "command", t.Path+" "+strings.Join(args, " "))

	proc, err := Start(t.Path, t.Env, args...)
	if err != nil {
		t.log.Error(err, "could not start esptool", "path", t.Path)
		return false
	}

	for line := range proc.Lines() {
		fmt.Fprintln(t.Out, line)
	}

	code, err := proc.Wait()
	if err != nil {
		t.log.Error(err, "esptool did not exit cleanly", "path", t.Path)
		return false
	}
	if code != 0 {
		t.log.Error(&ExitError{Code: code}, "command failed", "code", code, "duration", time.Since(start))
		return false
	}

	t.log.Debug("command finished", "duration", time.Since(start))
	return true
}
