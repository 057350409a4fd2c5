package esptool

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func makeVenv(t *testing.T, exe string) (venv, binDir string) {
	t.Helper()
	venv = t.TempDir()
	binDir = filepath.Join(venv, "bin")
	if runtime.GOOS == "windows" {
		binDir = filepath.Join(venv, "Scripts")
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, exe), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return venv, binDir
}

func pathOf(env []string) (string, bool) {
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			return e[5:], true
		}
	}
	return "", false
}

func TestLocateOverrideWins(t *testing.T) {
	inst := Locate("/opt/esp/esptool", "")
	if inst.Path != "/opt/esp/esptool" {
		t.Fatalf("Path = %q", inst.Path)
	}
	if inst.Env != nil {
		t.Fatal("override without venv should inherit the environment")
	}
}

func TestLocateVenv(t *testing.T) {
	exe := exeNames()[1]
	venv, binDir := makeVenv(t, exe)

	inst := Locate("", venv)
	if want := filepath.Join(binDir, exe); inst.Path != want {
		t.Fatalf("Path = %q, want %q", inst.Path, want)
	}
	path, ok := pathOf(inst.Env)
	if !ok {
		t.Fatal("PATH missing from venv environment")
	}
	if !strings.HasPrefix(path, binDir) {
		t.Errorf("PATH should start with %q, got %q", binDir, path)
	}
}

func TestLocateVenvPrefersScriptName(t *testing.T) {
	venv, binDir := makeVenv(t, exeNames()[0])
	if err := os.WriteFile(filepath.Join(binDir, exeNames()[1]), nil, 0o755); err != nil {
		t.Fatal(err)
	}

	inst := Locate("", venv)
	if filepath.Base(inst.Path) != exeNames()[0] {
		t.Fatalf("Path = %q, want %s", inst.Path, exeNames()[0])
	}
}

func TestLocateFallsBackToDefault(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	inst := Locate("", filepath.Join(t.TempDir(), "missing-venv"))
	if inst.Path != DefaultName {
		t.Fatalf("Path = %q, want %q", inst.Path, DefaultName)
	}
}

func TestBuildEnvWithPathNoPath(t *testing.T) {
	t.Setenv("PATH", "")
	os.Unsetenv("PATH")

	env := buildEnvWithPath("/venv/bin")
	path, ok := pathOf(env)
	if !ok || path != "/venv/bin" {
		t.Fatalf("PATH = %q (%v)", path, ok)
	}
}
