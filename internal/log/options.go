package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the logger.
type Options struct {
	Name          string   `json:"name,omitempty" mapstructure:"name"`
	Level         string   `json:"level,omitempty" mapstructure:"level"`
	Format        string   `json:"format,omitempty" mapstructure:"format"`
	EnableColor   bool     `json:"enable-color,omitempty" mapstructure:"enable-color"`
	DisableCaller bool     `json:"disable-caller,omitempty" mapstructure:"disable-caller"`
	CallerSkip    int      `json:"caller-skip,omitempty" mapstructure:"caller-skip"`
	OutputPaths   []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
}

// NewOptions returns the defaults: info level, colored console output on stderr.
// stdout is left to esptool output and the run report.
func NewOptions() *Options {
	return &Options{
		Level:         "info",
		Format:        FormatConsole,
		EnableColor:   true,
		DisableCaller: true,
		CallerSkip:    2,
		OutputPaths:   []string{"stderr"},
	}
}

// Validate reports option values the logger cannot be built from.
func (o *Options) Validate() []error {
	var errs []error
	if o.Format != FormatConsole && o.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("--log.format must be %q or %q, got %q", FormatConsole, FormatJSON, o.Format))
	}
	switch o.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("--log.level must be one of debug, info, warn, error, got %q", o.Level))
	}
	return errs
}

// AddFlags binds the options to fs under the "log." prefix.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level (debug, info, warn, error).")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log output format (console or json).")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Colorize levels in console format.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit file:line from log entries.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Log destinations (stderr, stdout or file paths).")
}
