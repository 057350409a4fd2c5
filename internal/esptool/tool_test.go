package esptool

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/buckleypaul/espfleet/internal/log"
)

// TestHelperProcess is re-executed as a stand-in for esptool. Arguments
// after "--" are: exit code, then lines alternating stdout/stderr.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("ESPFLEET_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	code, _ := strconv.Atoi(args[0])
	for i, line := range args[1:] {
		if i%2 == 0 {
			fmt.Fprintln(os.Stdout, line)
		} else {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	os.Exit(code)
}

func helperTool(out *bytes.Buffer) *Tool {
	inst := Installation{
		Path: os.Args[0],
		Env:  append(os.Environ(), "ESPFLEET_HELPER_PROCESS=1"),
	}
	return New(inst, out, log.NewNopLogger())
}

func helperArgs(code int, lines ...string) []string {
	return append([]string{"-test.run=TestHelperProcess", "--", strconv.Itoa(code)}, lines...)
}

func TestRunStreamsMergedOutput(t *testing.T) {
	var out bytes.Buffer
	tool := helperTool(&out)

	if ok := tool.Run(helperArgs(0, "Connecting....", "Chip is ESP32-D0WD", "Hard resetting via RTS pin...")...); !ok {
		t.Fatalf("expected success, output:\n%s", out.String())
	}

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"Connecting....", "Chip is ESP32-D0WD", "Hard resetting via RTS pin..."}
	if !slices.Equal(got, want) {
		t.Fatalf("output lines = %q, want %q", got, want)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	var out bytes.Buffer
	tool := helperTool(&out)

	if ok := tool.Run(helperArgs(2, "A fatal error occurred: Failed to connect to ESP32")...); ok {
		t.Fatal("expected failure on non-zero exit")
	}
	if !strings.Contains(out.String(), "Failed to connect") {
		t.Fatalf("expected failure output to be echoed, got %q", out.String())
	}
}

func TestRunLaunchFailure(t *testing.T) {
	var out bytes.Buffer
	tool := New(Installation{Path: filepath.Join(t.TempDir(), "no-such-esptool")}, &out, nil)

	if ok := tool.Run("version"); ok {
		t.Fatal("expected false when the tool cannot be started")
	}
}

func TestProcessLinesOnce(t *testing.T) {
	proc, err := Start(os.Args[0], append(os.Environ(), "ESPFLEET_HELPER_PROCESS=1"), helperArgs(0, "one", "two")...)
	if err != nil {
		t.Fatal(err)
	}

	var first []string
	for line := range proc.Lines() {
		first = append(first, line)
	}
	var second []string
	for line := range proc.Lines() {
		second = append(second, line)
	}

	if code, err := proc.Wait(); code != 0 || err != nil {
		t.Fatalf("Wait() = %d, %v", code, err)
	}
	if !slices.Equal(first, []string{"one", "two"}) {
		t.Fatalf("first pass = %q", first)
	}
	if len(second) != 0 {
		t.Fatalf("second pass should be empty, got %q", second)
	}
}

func TestProcessWaitWithoutReading(t *testing.T) {
	proc, err := Start(os.Args[0], append(os.Environ(), "ESPFLEET_HELPER_PROCESS=1"), helperArgs(3, "ignored")...)
	if err != nil {
		t.Fatal(err)
	}
	code, err := proc.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestScanLinesCarriageReturns(t *testing.T) {
	input := "Writing at 0x00010000... (10 %)\rWriting at 0x00014000... (20 %)\r\nWrote 2048 bytes\nHash of data verified."

	var got []string
	data := []byte(input)
	for len(data) > 0 {
		advance, token, err := scanLines(data, true)
		if err != nil {
			t.Fatal(err)
		}
		if advance == 0 {
			break
		}
		got = append(got, string(token))
		data = data[advance:]
	}

	want := []string{
		"Writing at 0x00010000... (10 %)",
		"Writing at 0x00014000... (20 %)",
		"Wrote 2048 bytes",
		"Hash of data verified.",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("scanLines tokens = %q, want %q", got, want)
	}
}

func TestScanLinesWaitsAfterTrailingCR(t *testing.T) {
	advance, token, err := scanLines([]byte("partial\r"), false)
	if err != nil || advance != 0 || token != nil {
		t.Fatalf("expected request for more data, got %d %q %v", advance, token, err)
	}
}
