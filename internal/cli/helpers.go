package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/jaa/apputils/internal/output"
	"github.com/spf13/cobra"
)

func loadConfig(app *AppContext) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		ExplicitPath: strings.TrimSpace(app.Opts.ConfigPath),
		WorkingDir:   wd,
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadValidConfig loads and validates the config, tagging failures with the
// invalid config exit code.
func loadValidConfig(app *AppContext) (config.Config, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return config.Config{}, withExitCode(exitcode.InvalidConfig, err)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, withExitCode(exitcode.InvalidConfig, err)
	}
	return cfg, nil
}

// newEmitter writes JSON events to stdout, or human lines to stderr so that
// they never mix with command results.
func newEmitter(app *AppContext) output.EventEmitter {
	if app.Opts.JSON {
		return output.NewJSONEmitter(app.IO.Out)
	}
	return output.NewHumanEmitter(app.IO.ErrOut, app.IO.ErrOut, app.Opts.Quiet, app.Opts.Verbose)
}

func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, interruptSignals()...)
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return withExitCode(exitcode.InvalidUsage, err)
		}
		return nil
	}
}

func parseProgressMode(raw string) (string, error) {
	mode := strings.TrimSpace(strings.ToLower(raw))
	switch mode {
	case "", "auto", "always", "never":
		if mode == "" {
			return "auto", nil
		}
		return mode, nil
	default:
		return "", fmt.Errorf("invalid --progress mode %q (expected: auto, always, never)", raw)
	}
}

func isTTY(file *os.File) bool {
	return output.SupportsInPlaceUpdates(file)
}
