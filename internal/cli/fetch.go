package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/curl"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/jaa/apputils/internal/fileops"
	"github.com/jaa/apputils/internal/output"
	"github.com/jaa/apputils/internal/progressbar"
	"github.com/spf13/cobra"
)

const fetchFrameInterval = 100 * time.Millisecond

func newFetchCommand(app *AppContext) *cobra.Command {
	target := ""
	hide := false
	progressMode := "auto"
	timeout := time.Duration(0)

	cmd := &cobra.Command{
		Use:   "fetch [flags] URL",
		Short: "Download a URL to a file with a progress bar",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseProgressMode(progressMode)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			cfg, err := loadValidConfig(app)
			if err != nil {
				return err
			}

			source := args[0]
			if target == "" {
				target = defaultFetchTarget(source)
			}
			target, err = config.ExpandPath(target)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}
			if !cmd.Flags().Changed("hide") {
				hide = cfg.Progress.HideOnFinish
			}

			interactive := mode == "always" || (mode == "auto" && output.SupportsInPlaceUpdates(app.IO.Out))
			if app.Opts.JSON || app.Opts.Quiet {
				interactive = false
			}

			ctx, stop := interruptContext(cmd.Context())
			defer stop()

			emitter := newEmitter(app)
			emitDownload(emitter, output.LevelInfo, output.EventDownloadStarted, source, fmt.Sprintf("downloading %s to %s", source, target), nil)

			req := curl.Request{
				URL:     source,
				Auth:    cfg.HTTP.CurlAuth(),
				Headers: downloadHeaders(cfg.HTTP.Headers),
				Stream:  true,
				// Let the transport undo compression so the file holds the payload.
				DisableGzip: true,
			}
			client := curl.NewClient(curl.Options{Timeout: timeout, UserAgent: userAgent(app)})
			resp, err := client.Do(ctx, req)
			if err != nil {
				emitDownload(emitter, output.LevelError, output.EventDownloadFailed, source, err.Error(), nil)
				return runtimeExit(err)
			}
			defer resp.Close()

			if resp.Code() >= http.StatusBadRequest {
				err := fmt.Errorf("%s returned HTTP %d", source, resp.Code())
				emitDownload(emitter, output.LevelError, output.EventDownloadFailed, source, err.Error(), map[string]any{"status": resp.Code()})
				return withExitCode(exitcode.HTTPError, err)
			}

			var tracker *downloadProgress
			if interactive {
				tracker, err = newDownloadProgress(app, cfg, path.Base(target), resp.ContentLength())
				if err != nil {
					return withExitCode(exitcode.InvalidConfig, err)
				}
			}

			written, err := saveBody(resp.Body(), target, tracker)
			if err != nil {
				if tracker != nil {
					_ = tracker.fail()
				}
				emitDownload(emitter, output.LevelError, output.EventDownloadFailed, source, err.Error(), map[string]any{"bytes": written})
				return runtimeExit(err)
			}
			if tracker != nil {
				if err := tracker.finish(hide); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			}

			emitDownload(emitter, output.LevelInfo, output.EventDownloadFinished, source,
				fmt.Sprintf("saved %s (%s)", target, humanize.Bytes(uint64(written))),
				map[string]any{"bytes": written, "path": target, "status": resp.Code()})
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "output", "o", "", "Destination file (default: last URL path segment)")
	cmd.Flags().BoolVar(&hide, "hide", false, "Replace the bar with its caption when done")
	cmd.Flags().StringVar(&progressMode, "progress", "auto", "Progress rendering mode: auto, always, or never")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the download after this long (default: no limit)")
	return cmd
}

// downloadHeaders drops Accept-Encoding so the transport negotiates and
// undoes compression itself.
func downloadHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if strings.EqualFold(name, "Accept-Encoding") {
			continue
		}
		out[name] = value
	}
	return out
}

func defaultFetchTarget(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "index.html"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "index.html"
	}
	return name
}

// saveBody streams body into a temp file next to target and publishes it
// only once the whole body has been read.
func saveBody(body io.Reader, target string, tracker *downloadProgress) (int64, error) {
	temp, err := fileops.CreateTemp(target)
	if err != nil {
		return 0, err
	}

	var dst io.Writer = temp
	if tracker != nil {
		dst = io.MultiWriter(temp, tracker)
	}
	written, copyErr := io.Copy(dst, body)
	closeErr := temp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil {
		copyErr = fileops.ReplaceFileSafely(temp.Name(), target)
	}
	if copyErr != nil {
		_ = fileops.RemoveTemp(temp.Name())
		return written, fmt.Errorf("download to %s: %w", target, copyErr)
	}
	return written, nil
}

// downloadProgress is an io.Writer that advances a bar by the bytes written
// through it, redrawing at most once per fetchFrameInterval.
type downloadProgress struct {
	bar       *progressbar.Bar
	total     int64
	done      int64
	lastFrame time.Time
	now       func() time.Time
}

func newDownloadProgress(app *AppContext, cfg config.Config, caption string, total int64) (*downloadProgress, error) {
	style, err := progressbar.StyleByName(cfg.Progress.Style)
	if err != nil {
		return nil, err
	}
	opts := progressbar.NewOptions(style, progressbar.FormatStatus)
	bar, err := progressbar.NewWithConfig(caption, cfg.Progress.Width, opts, progressbar.Config{Output: app.IO.Out})
	if err != nil {
		return nil, err
	}
	p := &downloadProgress{bar: bar, total: total, now: time.Now}
	if err := bar.Start(total); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *downloadProgress) Write(chunk []byte) (int, error) {
	p.done += int64(len(chunk))
	now := p.now()
	if now.Sub(p.lastFrame) < fetchFrameInterval && (p.total <= 0 || p.done < p.total) {
		return len(chunk), nil
	}
	p.lastFrame = now
	if err := p.bar.ProgressStatus(p.done, p.statusText()); err != nil {
		return 0, err
	}
	return len(chunk), nil
}

func (p *downloadProgress) statusText() string {
	if p.total > 0 {
		return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(p.done)), humanize.Bytes(uint64(p.total)))
	}
	return humanize.Bytes(uint64(p.done))
}

func (p *downloadProgress) finish(hide bool) error {
	if p.total <= 0 {
		if err := p.bar.ProgressStatus(p.done, p.statusText()); err != nil {
			return err
		}
	}
	return p.bar.StopStatus(hide, p.statusText())
}

func (p *downloadProgress) fail() error {
	return p.bar.StopStatus(true, "failed")
}

func emitDownload(emitter output.EventEmitter, level output.Level, name output.EventName, source, message string, details map[string]any) {
	_ = emitter.Emit(output.Event{
		Level:   level,
		Event:   name,
		Target:  source,
		Message: strings.TrimSpace(message),
		Details: details,
	})
}
