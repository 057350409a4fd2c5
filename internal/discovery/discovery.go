package discovery

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
)

// Device names a serial endpoint, e.g. /dev/ttyUSB0 or COM3. It is handed
// to esptool untouched.
type Device string

func (d Device) String() string { return string(d) }

// ErrUnsupportedPlatform is returned by ForPlatform for hosts with no
// discovery strategy.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Strategy finds candidate devices on one kind of host.
type Strategy interface {
	Name() string
	Discover() ([]Device, error)
}

// Device naming conventions per host.
var (
	LinuxPatterns  = []string{"/dev/ttyUSB*"}
	DarwinPatterns = []string{"/dev/cu.usbserial*", "/dev/tty.usbserial*"}
)

// ForPlatform picks the strategy for goos (a runtime.GOOS value).
func ForPlatform(goos string) (Strategy, error) {
	switch goos {
	case "linux":
		return NewGlob("linux", LinuxPatterns...), nil
	case "darwin":
		return NewGlob("darwin", DarwinPatterns...), nil
	case "windows":
		return NewEnumerator(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// Host returns the strategy for the running OS.
func Host() (Strategy, error) {
	return ForPlatform(runtime.GOOS)
}

// Glob matches device nodes against filesystem patterns. Patterns are
// tried in order and the first one with any match wins.
type Glob struct {
	name     string
	patterns []string
}

// NewGlob creates a Glob strategy. Later patterns are fallbacks.
func NewGlob(name string, patterns ...string) *Glob {
	return &Glob{name: name, patterns: patterns}
}

func (g *Glob) Name() string { return g.name }

// Patterns returns the patterns in fallback order.
func (g *Glob) Patterns() []string {
	return append([]string(nil), g.patterns...)
}

// Discover returns the sorted matches of the first productive pattern,
// or an empty slice when nothing matches.
func (g *Glob) Discover() ([]Device, error) {
	for _, pattern := range g.patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		devices := make([]Device, 0, len(matches))
		for _, m := range matches {
			devices = append(devices, Device(m))
		}
		return devices, nil
	}
	return []Device{}, nil
}
