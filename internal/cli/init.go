package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/jaa/apputils/internal/fileops"
	"github.com/spf13/cobra"
)

func newInitCommand(app *AppContext) *cobra.Command {
	force := false
	project := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(app.Opts.ConfigPath)
			switch {
			case path != "":
				expanded, err := config.ExpandPath(path)
				if err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				path = expanded
			case project:
				wd, err := os.Getwd()
				if err != nil {
					return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("resolve working directory: %w", err))
				}
				path = config.ProjectConfigPath(wd)
			default:
				userPath, err := config.UserConfigPath()
				if err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
				path = userPath
			}

			if err := config.EnsureConfigDir(path); err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			if _, err := os.Stat(path); err == nil && !force {
				if app.Opts.NoInput || !isTTY(os.Stdin) {
					return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("config already exists at %s (rerun with --force)", path))
				}
				confirmed, confirmErr := promptYesNo(app, fmt.Sprintf("Config already exists at %s. Overwrite?", path))
				if confirmErr != nil {
					return withExitCode(exitcode.RuntimeFailure, confirmErr)
				}
				if !confirmed {
					fmt.Fprintln(app.IO.Out, "Initialization canceled.")
					return nil
				}
			}

			temp, err := fileops.CreateTemp(path)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			_, writeErr := temp.WriteString(config.DefaultTemplate())
			closeErr := temp.Close()
			if writeErr == nil {
				writeErr = closeErr
			}
			if writeErr == nil {
				writeErr = fileops.ReplaceFileSafely(temp.Name(), path)
			}
			if writeErr != nil {
				_ = fileops.RemoveTemp(temp.Name())
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("write config file: %w", writeErr))
			}

			fmt.Fprintf(app.IO.Out, "Wrote config: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().BoolVar(&project, "project", false, "Write ./apputils.yaml instead of the user config")
	return cmd
}

func promptYesNo(app *AppContext, prompt string) (bool, error) {
	fmt.Fprintf(app.IO.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(app.IO.In)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}
