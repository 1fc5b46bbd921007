package doctor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jaa/apputils/internal/config"
	"github.com/jaa/apputils/internal/curl"
	"github.com/jaa/apputils/internal/output"
	"github.com/jaa/apputils/internal/progressbar"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

var proxyVariables = []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY"}

type Checker struct {
	Getenv        func(string) string
	Getwd         func() (string, error)
	CheckWritable func(string) error
	// IsTerminal and TerminalSize describe the output the bars render to.
	IsTerminal   func() bool
	TerminalSize progressbar.SizeFunc
	// ProbeURL, when set, is requested once to confirm outbound HTTP works.
	ProbeURL string
	Probe    func(context.Context, string) (int, error)
}

func NewChecker() *Checker {
	return &Checker{
		Getenv: os.Getenv,
		Getwd:  os.Getwd,
		CheckWritable: func(path string) error {
			return checkDirWritable(path)
		},
		IsTerminal:   func() bool { return output.SupportsInPlaceUpdates(os.Stdout) },
		TerminalSize: progressbar.TerminalSize(os.Stdout),
		Probe:        defaultProbe,
	}
}

func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	report.Checks = append(report.Checks, c.terminalChecks(cfg)...)

	if err := config.Validate(cfg); err != nil {
		if validationErr, ok := err.(*config.ValidationError); ok {
			for _, problem := range validationErr.Problems {
				report.Checks = append(report.Checks, Check{Severity: SeverityError, Name: "config", Message: problem})
			}
		} else {
			report.Checks = append(report.Checks, Check{Severity: SeverityError, Name: "config", Message: err.Error()})
		}
	} else {
		report.Checks = append(report.Checks, Check{Severity: SeverityInfo, Name: "config", Message: "configuration is valid"})
	}

	if wd, err := c.Getwd(); err != nil {
		report.Checks = append(report.Checks, Check{Severity: SeverityError, Name: "filesystem", Message: fmt.Sprintf("working directory is unavailable: %v", err)})
	} else if err := c.CheckWritable(wd); err != nil {
		report.Checks = append(report.Checks, Check{Severity: SeverityError, Name: "filesystem", Message: fmt.Sprintf("working directory %s is not writable: %v", wd, err)})
	} else {
		report.Checks = append(report.Checks, Check{Severity: SeverityInfo, Name: "filesystem", Message: fmt.Sprintf("working directory %s is writable", wd)})
	}

	report.Checks = append(report.Checks, c.proxyChecks()...)

	if strings.TrimSpace(c.ProbeURL) != "" {
		report.Checks = append(report.Checks, c.probeCheck(ctx))
	}

	return report
}

func (c *Checker) terminalChecks(cfg config.Config) []Check {
	if c.IsTerminal == nil || !c.IsTerminal() {
		return []Check{{
			Severity: SeverityWarn,
			Name:     "terminal",
			Message:  "stdout is not a terminal; progress bars print one frame per line",
		}}
	}

	cols := 80
	checks := []Check{}
	if c.TerminalSize == nil {
		checks = append(checks, Check{Severity: SeverityWarn, Name: "terminal", Message: "terminal size is unknown; assuming 80 columns"})
	} else if width, _, err := c.TerminalSize(); err != nil || width <= 0 {
		checks = append(checks, Check{Severity: SeverityWarn, Name: "terminal", Message: "terminal size could not be read; assuming 80 columns"})
	} else {
		cols = width
		checks = append(checks, Check{Severity: SeverityInfo, Name: "terminal", Message: fmt.Sprintf("terminal is %d columns wide", cols)})
	}

	if cfg.Progress.Width >= cols {
		checks = append(checks, Check{
			Severity: SeverityWarn,
			Name:     "terminal",
			Message:  fmt.Sprintf("progress.width %d does not fit a %d column terminal; bars will wrap", cfg.Progress.Width, cols),
		})
	}
	return checks
}

func (c *Checker) proxyChecks() []Check {
	checks := []Check{}
	for _, name := range proxyVariables {
		value := strings.TrimSpace(c.Getenv(name))
		if value == "" {
			value = strings.TrimSpace(c.Getenv(strings.ToLower(name)))
		}
		if value == "" {
			continue
		}
		if name == "NO_PROXY" {
			checks = append(checks, Check{Severity: SeverityInfo, Name: "proxy", Message: fmt.Sprintf("%s=%s", name, value)})
			continue
		}
		if err := validateProxyURL(value); err != nil {
			checks = append(checks, Check{Severity: SeverityError, Name: "proxy", Message: fmt.Sprintf("%s is invalid: %v", name, err)})
			continue
		}
		checks = append(checks, Check{Severity: SeverityInfo, Name: "proxy", Message: fmt.Sprintf("%s is set", name)})
	}
	if len(checks) == 0 {
		checks = append(checks, Check{Severity: SeverityInfo, Name: "proxy", Message: "no proxy configured"})
	}
	return checks
}

func (c *Checker) probeCheck(ctx context.Context) Check {
	probe := c.Probe
	if probe == nil {
		probe = defaultProbe
	}
	code, err := probe(ctx, c.ProbeURL)
	if err != nil {
		return Check{Severity: SeverityError, Name: "network", Message: fmt.Sprintf("%s is unreachable: %v", c.ProbeURL, err)}
	}
	if code >= 500 {
		return Check{Severity: SeverityWarn, Name: "network", Message: fmt.Sprintf("%s answered %d", c.ProbeURL, code)}
	}
	return Check{Severity: SeverityInfo, Name: "network", Message: fmt.Sprintf("%s answered %d", c.ProbeURL, code)}
}

func defaultProbe(ctx context.Context, target string) (int, error) {
	resp, err := curl.Do(ctx, curl.Request{URL: target, Stream: true, Timeout: 10 * time.Second})
	if err != nil {
		return 0, err
	}
	defer resp.Close()
	return resp.Code(), nil
}

func validateProxyURL(raw string) error {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func checkDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, ".apputils-write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}
