package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/jaa/apputils/internal/view"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newViewCommand(app *AppContext) *cobra.Command {
	format := "yaml"
	nullValues := false
	ignoreUnknown := false

	cmd := &cobra.Command{
		Use:   "view [flags] FILE",
		Short: "Map a config document through the config view and print it normalized",
		Long: "view reads a YAML, TOML or JSON config document, maps it onto the config view " +
			"(coercing values and filling defaults) and prints the result.",
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "yaml" && format != "json" {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("invalid --format %q (expected: yaml, json)", format))
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			doc, err := config.ReadDocument(path)
			if err != nil {
				return withExitCode(exitcode.InvalidConfig, err)
			}

			cfg := config.DefaultConfig()
			if err := view.Decode(doc, &cfg, view.DecodeOptions{IgnoreNonExisting: ignoreUnknown}); err != nil {
				return withExitCode(exitcode.InvalidConfig, fmt.Errorf("map %s: %w", path, err))
			}

			encoded, err := view.Encode(cfg, view.EncodeOptions{NullValues: nullValues})
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			var payload []byte
			if format == "json" || app.Opts.JSON {
				payload, err = json.MarshalIndent(encoded, "", "  ")
				payload = append(payload, '\n')
			} else {
				payload, err = yaml.Marshal(encoded)
			}
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("encode %s: %w", format, err))
			}
			_, err = app.IO.Out.Write(payload)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	cmd.Flags().BoolVar(&nullValues, "null-values", false, "Print unset optional fields as null")
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "Drop keys the config view does not declare")
	return cmd
}
