package config

import (
	"fmt"
	"strings"

	"github.com/jaa/apputils/internal/progressbar"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	if cfg.Progress.Width <= 0 {
		problems = append(problems, "progress.width must be > 0")
	}
	if _, err := progressbar.StyleByName(cfg.Progress.Style); err != nil {
		problems = append(problems, fmt.Sprintf("progress.style: %v", err))
	}
	if strings.TrimSpace(cfg.Progress.Template) == "" {
		problems = append(problems, "progress.template must be set")
	} else if _, err := ResolveTemplate(cfg.Progress.Template); err != nil {
		problems = append(problems, fmt.Sprintf("progress.template: %v", err))
	}

	if cfg.HTTP.TimeoutSeconds <= 0 {
		problems = append(problems, "http.timeout_seconds must be > 0")
	}
	if cfg.HTTP.Concurrency <= 0 {
		problems = append(problems, "http.concurrency must be > 0")
	}
	for name := range cfg.HTTP.Headers {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " :\r\n") {
			problems = append(problems, fmt.Sprintf("http.headers has invalid name %q", name))
		}
	}
	if cfg.HTTP.Auth != nil {
		if cfg.HTTP.Auth.User == "" {
			problems = append(problems, "http.auth.user must be set when http.auth is present")
		}
		if strings.Contains(cfg.HTTP.Auth.User, ":") {
			problems = append(problems, "http.auth.user must not contain ':'")
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
