package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/curl"
	"github.com/jaa/apputils/internal/exitcode"
	"github.com/jaa/apputils/internal/output"
	"github.com/spf13/cobra"
)

type curlFlags struct {
	method     string
	data       string
	headers    []string
	user       string
	forceAuth  bool
	params     []string
	timeout    time.Duration
	noGzip     bool
	include    bool
	jsonPretty bool
}

func newCurlCommand(app *AppContext) *cobra.Command {
	flags := curlFlags{}

	cmd := &cobra.Command{
		Use:   "curl [flags] URL...",
		Short: "Send HTTP requests and print the responses",
		Long: "curl sends one request per URL. Several URLs are requested concurrently, " +
			"bounded by http.concurrency, and printed in the order given.",
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig(app)
			if err != nil {
				return err
			}

			reqs, err := flags.requests(cfg, args)
			if err != nil {
				return withExitCode(exitcode.InvalidUsage, err)
			}

			timeout := cfg.HTTP.Timeout()
			if cmd.Flags().Changed("timeout") {
				timeout = flags.timeout
			}
			client := curl.NewClient(curl.Options{Timeout: timeout, UserAgent: userAgent(app)})
			emitter := output.NewTally(newEmitter(app))

			ctx, stop := interruptContext(cmd.Context())
			defer stop()

			for _, req := range reqs {
				emitRequest(emitter, output.LevelInfo, output.EventRequestStarted, req, fmt.Sprintf("%s %s", req.Method, req.URL), nil)
			}

			var responses []*curl.Response
			if len(reqs) == 1 {
				resp, doErr := client.Do(ctx, reqs[0])
				if doErr == nil {
					responses = []*curl.Response{resp}
				}
				err = doErr
			} else {
				responses, err = client.DoAll(ctx, reqs, cfg.HTTP.Concurrency)
			}
			if err != nil {
				failedReq := reqs[0]
				var reqErr *curl.RequestError
				if errors.As(err, &reqErr) {
					failedReq = reqErr.Request
				}
				emitRequest(emitter, output.LevelError, output.EventRequestFailed, failedReq, err.Error(), nil)
				return runtimeExit(err)
			}

			for i, resp := range responses {
				if err := flags.report(app, emitter, reqs[i], resp, len(responses) > 1); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			}
			failed := emitter.Count(output.EventRequestFinished, output.LevelWarn)
			if len(responses) > 1 {
				_ = emitter.Emit(output.Event{
					Level:   output.LevelInfo,
					Event:   output.EventBatchFinished,
					Message: fmt.Sprintf("%d of %d requests succeeded", len(responses)-failed, len(responses)),
					Details: map[string]any{"requests": len(responses), "failed": failed},
				})
			}
			if failed > 0 {
				return withExitCode(exitcode.HTTPError, fmt.Errorf("%d of %d request(s) returned an HTTP error status", failed, len(responses)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.method, "request", "X", "GET", "Request method: GET, POST, PUT or DELETE")
	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "Request body; @path reads it from a file")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "Extra header as 'Name: value' (repeatable)")
	cmd.Flags().StringVarP(&flags.user, "user", "u", "", "Basic auth credentials as user:password")
	cmd.Flags().BoolVar(&flags.forceAuth, "force-auth", false, "Send credentials without waiting for a challenge")
	cmd.Flags().StringArrayVar(&flags.params, "param", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Request timeout (default from config)")
	cmd.Flags().BoolVar(&flags.noGzip, "no-gzip", false, "Do not ask for compressed responses")
	cmd.Flags().BoolVarP(&flags.include, "include", "i", false, "Print status line and headers")
	cmd.Flags().BoolVar(&flags.jsonPretty, "json-pretty", false, "Indent JSON response bodies")
	return cmd
}

func (f curlFlags) requests(cfg config.Config, urls []string) ([]curl.Request, error) {
	method, err := curl.ParseMethod(f.method)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	for name, value := range cfg.HTTP.Headers {
		headers[name] = value
	}
	for _, raw := range f.headers {
		name, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q (expected 'Name: value')", raw)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	params := url.Values{}
	for _, raw := range f.params {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q (expected key=value)", raw)
		}
		params.Add(key, value)
	}

	auth := cfg.HTTP.CurlAuth()
	if f.user != "" {
		user, password, _ := strings.Cut(f.user, ":")
		auth = &curl.Auth{User: user, Password: password}
	}
	if auth != nil && f.forceAuth {
		auth.Force = true
	}

	var body any
	if f.data != "" {
		body = f.data
		if strings.HasPrefix(f.data, "@") {
			payload, err := os.ReadFile(strings.TrimPrefix(f.data, "@"))
			if err != nil {
				return nil, fmt.Errorf("read request body: %w", err)
			}
			body = string(payload)
		}
	}

	reqs := make([]curl.Request, 0, len(urls))
	for _, target := range urls {
		reqs = append(reqs, curl.Request{
			Method:      method,
			URL:         target,
			Params:      params,
			Auth:        auth,
			Body:        body,
			Headers:     headers,
			DisableGzip: f.noGzip || !cfg.HTTP.UseGzip,
		})
	}
	return reqs, nil
}

func (f curlFlags) report(app *AppContext, emitter output.EventEmitter, req curl.Request, resp *curl.Response, many bool) error {
	content, err := resp.Content()
	if err != nil {
		return err
	}

	level := output.LevelInfo
	if resp.Code() >= http.StatusBadRequest {
		level = output.LevelWarn
	}
	details := map[string]any{
		"status":         resp.Code(),
		"content_length": resp.ContentLength(),
	}
	if app.Opts.JSON {
		details["headers"] = resp.Header()
		if decoded := resp.FromJSON(); decoded != nil {
			details["body"] = decoded
		} else {
			details["body"] = content
		}
	}
	emitRequest(emitter, level, output.EventRequestFinished, req, fmt.Sprintf("%s %s %d", req.Method, req.URL, resp.Code()), details)
	if app.Opts.JSON {
		return nil
	}

	out := app.IO.Out
	if many {
		fmt.Fprintf(out, "==> %s <==\n", req.URL)
	}
	if f.include {
		writeResponseHead(out, resp)
	}
	if f.jsonPretty {
		if decoded := resp.FromJSON(); decoded != nil {
			pretty, err := json.MarshalIndent(decoded, "", "  ")
			if err == nil {
				content = string(pretty)
			}
		}
	}
	fmt.Fprint(out, content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}

func writeResponseHead(w io.Writer, resp *curl.Response) {
	fmt.Fprintf(w, "HTTP %d %s\n", resp.Code(), http.StatusText(resp.Code()))
	names := make([]string, 0, len(resp.Header()))
	for name := range resp.Header() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range resp.Header()[name] {
			fmt.Fprintf(w, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(w)
}

func emitRequest(emitter output.EventEmitter, level output.Level, name output.EventName, req curl.Request, message string, details map[string]any) {
	_ = emitter.Emit(output.Event{
		Level:   level,
		Event:   name,
		Target:  req.URL,
		Message: message,
		Details: details,
	})
}

func userAgent(app *AppContext) string {
	version := app.Build.Version
	if version == "" {
		version = "dev"
	}
	return "apputils/" + version
}
