package config

import (
	"strings"
	"time"

	"github.com/jaa/apputils/internal/curl"
	"github.com/jaa/apputils/internal/progressbar"
)

// BarOptions resolves the configured style and template. Template is either
// a preset name or a literal template containing placeholders.
func (p Progress) BarOptions() (progressbar.Options, error) {
	style, err := progressbar.StyleByName(p.Style)
	if err != nil {
		return progressbar.Options{}, err
	}
	template, err := ResolveTemplate(p.Template)
	if err != nil {
		return progressbar.Options{}, err
	}
	return progressbar.NewOptions(style, template), nil
}

func ResolveTemplate(raw string) (string, error) {
	if strings.Contains(raw, "{") {
		return raw, nil
	}
	return progressbar.FormatByName(raw)
}

func (h HTTP) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// CurlAuth returns nil when no user is configured.
func (h HTTP) CurlAuth() *curl.Auth {
	if h.Auth == nil || h.Auth.User == "" {
		return nil
	}
	return &curl.Auth{
		User:     h.Auth.User,
		Password: h.Auth.Password,
		Force:    h.Auth.Force,
	}
}
