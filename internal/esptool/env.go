package esptool

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultName is the launcher used when nothing better is found.
const DefaultName = "esptool.py"

// Installation is a resolved esptool executable and the environment it
// should run with. A nil Env inherits the parent environment.
type Installation struct {
	Path string
	Env  []string
}

// Locate resolves the esptool executable.
// Order: override → <venv>/bin (Scripts on Windows) → PATH → DefaultName.
// A venv hit also prepends its bin dir to PATH so the script finds the
// venv's python.
func Locate(override, venv string) Installation {
	if override != "" {
		inst := Installation{Path: override}
		if venv != "" {
			inst.Env = buildEnvWithPath(venvBinDir(venv))
		}
		return inst
	}

	if venv != "" {
		binDir := venvBinDir(venv)
		for _, name := range exeNames() {
			candidate := filepath.Join(binDir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return Installation{Path: candidate, Env: buildEnvWithPath(binDir)}
			}
		}
	}

	for _, name := range exeNames() {
		if path, err := exec.LookPath(name); err == nil {
			return Installation{Path: path}
		}
	}
	return Installation{Path: DefaultName}
}

// venvBinDir returns the bin (or Scripts on Windows) directory for a venv.
func venvBinDir(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts")
	}
	return filepath.Join(venvPath, "bin")
}

// exeNames lists executable names pip installs for esptool, preferred first.
func exeNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"esptool.py.exe", "esptool.exe"}
	}
	return []string{"esptool.py", "esptool"}
}

// buildEnvWithPath copies the current environment with binDir prepended
// to PATH.
func buildEnvWithPath(binDir string) []string {
	env := os.Environ()
	result := make([]string, 0, len(env)+1)
	pathSet := false

	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			result = append(result, "PATH="+binDir+string(os.PathListSeparator)+e[5:])
			pathSet = true
		} else {
			result = append(result, e)
		}
	}
	if !pathSet {
		result = append(result, "PATH="+binDir)
	}
	return result
}
