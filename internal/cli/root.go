package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jaa/apputils/internal/exitcode"
	"github.com/spf13/cobra"
)

func Execute(build BuildInfo, streams IOStreams) int {
	loadEnvironment(streams.ErrOut)

	app := &AppContext{Build: build, IO: streams}
	if err := newRootCommand(app).Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return mapExitCode(err)
	}
	return exitcode.Success
}

// loadEnvironment applies .env files from the working directory. A broken
// file is reported and otherwise ignored.
func loadEnvironment(errOut io.Writer) {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	if err := loadDotEnvFiles(wd, os.Environ(), os.Setenv); err != nil {
		fmt.Fprintln(errOut, "WARN:", err)
	}
}

const (
	groupTools  = "tools"
	groupConfig = "config"
)

func newRootCommand(app *AppContext) *cobra.Command {
	showVersion := false

	root := &cobra.Command{
		Use:   "apputils",
		Short: "Progress bars, HTTP requests and document views from the command line",
		Long:  "apputils bundles a terminal progress bar, a small curl-like HTTP client and a document view mapper behind one config-driven CLI.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Opts.Quiet && app.Opts.Verbose {
				return withExitCode(exitcode.InvalidUsage, errors.New("--quiet and --verbose cannot be combined"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(app)
				return nil
			}
			return cmd.Help()
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.Opts.ConfigPath, "config", "c", os.Getenv("APPUTILS_CONFIG"), "Path to config file (env APPUTILS_CONFIG)")
	flags.BoolVar(&app.Opts.JSON, "json", false, "Emit newline-delimited JSON events")
	flags.BoolVarP(&app.Opts.Quiet, "quiet", "q", false, "Print only errors and outcomes")
	flags.BoolVarP(&app.Opts.Verbose, "verbose", "v", false, "Also print request and download start events")
	flags.BoolVar(&app.Opts.NoInput, "no-input", false, "Disable interactive prompts")
	root.Flags().BoolVar(&showVersion, "version", false, "Print version info")

	root.SetIn(app.IO.In)
	root.SetOut(app.IO.Out)
	root.SetErr(app.IO.ErrOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(exitcode.InvalidUsage, err)
	})

	root.AddGroup(
		&cobra.Group{ID: groupTools, Title: "Tools:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	addGrouped(root, groupTools,
		newProgressCommand(app),
		newCurlCommand(app),
		newFetchCommand(app),
		newViewCommand(app),
	)
	addGrouped(root, groupConfig,
		newInitCommand(app),
		newValidateCommand(app),
		newDoctorCommand(app),
	)
	root.AddCommand(newVersionCommand(app))

	return root
}

func addGrouped(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		root.AddCommand(cmd)
	}
}

func printVersion(app *AppContext) {
	version := app.Build.Version
	if version == "" {
		version = "dev"
	}
	commit := app.Build.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := app.Build.Date
	if date == "" {
		date = "unknown"
	}

	fmt.Fprintf(app.IO.Out, "apputils version %s\ncommit: %s\nbuild_date: %s\n", version, commit, date)
}
