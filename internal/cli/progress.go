package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/jaa/apputils/internal/progressbar"
	"github.com/spf13/cobra"
)

type progressDemo struct {
	max      int64
	step     int64
	ticks    int
	interval time.Duration
	width    int
	style    string
	template string
	hide     bool
	status   string
}

func newProgressCommand(app *AppContext) *cobra.Command {
	demo := progressDemo{}

	cmd := &cobra.Command{
		Use:   "progress [caption]",
		Short: "Render a progress bar driven by a timer",
		Long: "progress renders a bar that advances by --step every --interval until --max is reached. " +
			"A --max of zero or less renders the infinite indicator for --ticks updates.",
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(app)
			if err != nil {
				return err
			}

			caption := "progress"
			if len(args) == 1 {
				caption = args[0]
			}

			flags := cmd.Flags()
			if !flags.Changed("width") {
				demo.width = cfg.Progress.Width
			}
			if !flags.Changed("style") {
				demo.style = cfg.Progress.Style
			}
			if !flags.Changed("template") {
				demo.template = cfg.Progress.Template
				if flags.Changed("status") && !strings.Contains(demo.template, "{") {
					demo.template = "status"
				}
			}
			if !flags.Changed("hide") {
				demo.hide = cfg.Progress.HideOnFinish
			}
			if demo.step <= 0 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--step must be > 0"))
			}

			opts, err := config.Progress{Style: demo.style, Template: demo.template}.BarOptions()
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			bar, err := progressbar.NewWithConfig(caption, demo.width, opts, progressbar.Config{Output: app.IO.Out})
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			ctx, stop := interruptContext(cmd.Context())
			defer stop()
			return demo.run(ctx, bar)
		},
	}

	cmd.Flags().Int64Var(&demo.max, "max", 100, "Target value; zero or less renders an infinite bar")
	cmd.Flags().Int64Var(&demo.step, "step", 1, "Amount added per update")
	cmd.Flags().IntVar(&demo.ticks, "ticks", 50, "Number of updates for an infinite bar")
	cmd.Flags().DurationVar(&demo.interval, "interval", 50*time.Millisecond, "Delay between updates")
	cmd.Flags().IntVar(&demo.width, "width", 0, "Bar width in cells (default from config)")
	cmd.Flags().StringVar(&demo.style, "style", "", "Bar style: "+strings.Join(progressbar.StyleNames(), ", "))
	cmd.Flags().StringVar(&demo.template, "template", "", "Template name ("+strings.Join(progressbar.FormatNames(), ", ")+") or literal template")
	cmd.Flags().BoolVar(&demo.hide, "hide", false, "Replace the bar with its caption when done")
	cmd.Flags().StringVar(&demo.status, "status", "", "Status text shown by status templates")
	return cmd
}

func (d progressDemo) run(ctx context.Context, bar *progressbar.Bar) error {
	if err := bar.Start(d.max); err != nil {
		return withExitCode(exitcode.RuntimeFailure, err)
	}

	updates := d.ticks
	if d.max > 0 {
		updates = int((d.max + d.step - 1) / d.step)
	}

	var ticker *time.Ticker
	if d.interval > 0 {
		ticker = time.NewTicker(d.interval)
		defer ticker.Stop()
	}

	for i := 0; i < updates; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				_ = bar.StopStatus(true, "interrupted")
				return withExitCode(exitcode.Interrupted, ctx.Err())
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			_ = bar.StopStatus(true, "interrupted")
			return withExitCode(exitcode.Interrupted, err)
		}

		step := d.step
		if d.max > 0 && bar.Value()+step > d.max {
			step = d.max - bar.Value()
		}
		var err error
		if d.status != "" {
			err = bar.IncStatus(step, d.status)
		} else {
			err = bar.Inc(step)
		}
		if err != nil {
			return withExitCode(exitcode.RuntimeFailure, err)
		}
	}

	var err error
	if d.status != "" {
		err = bar.StopStatus(d.hide, "done")
	} else {
		err = bar.Stop(d.hide)
	}
	if err != nil {
		return withExitCode(exitcode.RuntimeFailure, err)
	}
	return nil
}
