package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jaa/apputils/internal/doctor"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/spf13/cobra"
)

func newDoctorCommand(app *AppContext) *cobra.Command {
	probeURL := ""

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check terminal, config, filesystem and network readiness",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			ctx, stop := interruptContext(cmd.Context())
			defer stop()

			checker := doctor.NewChecker()
			checker.ProbeURL = probeURL
			report := checker.Check(ctx, cfg)

			if app.Opts.JSON {
				encoder := json.NewEncoder(app.IO.Out)
				if err := encoder.Encode(report); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			} else {
				checks := append([]doctor.Check{}, report.Checks...)
				sort.SliceStable(checks, func(i, j int) bool {
					return checks[i].Name < checks[j].Name
				})
				for _, check := range checks {
					fmt.Fprintf(app.IO.Out, "[%s] %s: %s\n", check.Severity, check.Name, check.Message)
				}
			}

			if report.HasErrors() {
				return withExitCode(exitcode.Environment, fmt.Errorf("doctor found %d error(s)", report.ErrorCount()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&probeURL, "probe", "", "Also request this URL to confirm outbound HTTP works")
	return cmd
}
