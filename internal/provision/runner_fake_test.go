package provision

import (
	"time"

	"github.com/buckleypaul/espfleet/internal/esptool"
)

type runCall struct {
	port string
	op   string
	args []string
}

// fakeRunner records esptool invocations and fails or panics on request.
// Keys of fail and panicOn are "<port>/<op>".
type fakeRunner struct {
	calls   []runCall
	fail    map[string]bool
	panicOn map[string]bool
}

func (f *fakeRunner) Run(args ...string) bool {
	call := runCall{args: append([]string(nil), args...)}
	for i, a := range args {
		if a == "--port" && i+1 < len(args) {
			call.port = args[i+1]
		}
		if a == esptool.OpEraseFlash || a == esptool.OpWriteFlash || a == esptool.OpVerifyFlash {
			call.op = a
		}
	}
	f.calls = append(f.calls, call)

	key := call.port + "/" + call.op
	if f.panicOn[key] {
		panic("serial adapter vanished")
	}
	return !f.fail[key]
}

func (f *fakeRunner) ops(port string) []string {
	var ops []string
	for _, c := range f.calls {
		if c.port == port {
			ops = append(ops, c.op)
		}
	}
	return ops
}

func (f *fakeRunner) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

type fakeSleeper struct {
	delays []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

type recordingObserver struct {
	results []Result
}

func (r *recordingObserver) Observe(res Result) {
	r.results = append(r.results, res)
}

func (r *recordingObserver) devices() []string {
	var out []string
	for _, res := range r.results {
		out = append(out, res.Device.String())
	}
	return out
}
