package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jaa/apputils/internal/view"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	normalize(&cfg)
	return cfg, nil
}

// ReadDocument reads a YAML, TOML or JSON file into a generic document.
// The format follows the file extension; anything unrecognised is read as
// YAML.
func ReadDocument(path string) (any, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	doc, err := ParseDocument(filepath.Ext(path), payload)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return doc, nil
}

func ParseDocument(ext string, payload []byte) (any, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		doc := map[string]any{}
		if err := toml.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	default:
		// JSON documents are valid YAML.
		var doc any
		if err := yaml.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
		if doc == nil {
			return map[string]any{}, nil
		}
		return doc, nil
	}
}

func mergeFile(cfg *Config, path string, required bool) error {
	doc, err := ReadDocument(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return err
	}

	if err := view.Decode(doc, cfg, view.DecodeOptions{}); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	if value := strings.TrimSpace(env["APPUTILS_PROGRESS_WIDTH"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid APPUTILS_PROGRESS_WIDTH value %q: %w", value, err)
		}
		cfg.Progress.Width = parsed
	}
	if value := strings.TrimSpace(env["APPUTILS_PROGRESS_STYLE"]); value != "" {
		cfg.Progress.Style = value
	}
	if value := env["APPUTILS_PROGRESS_TEMPLATE"]; strings.TrimSpace(value) != "" {
		cfg.Progress.Template = value
	}
	if value := strings.TrimSpace(env["APPUTILS_HTTP_TIMEOUT_SECONDS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid APPUTILS_HTTP_TIMEOUT_SECONDS value %q: %w", value, err)
		}
		cfg.HTTP.TimeoutSeconds = parsed
	}
	if value := strings.TrimSpace(env["APPUTILS_HTTP_USE_GZIP"]); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid APPUTILS_HTTP_USE_GZIP value %q: %w", value, err)
		}
		cfg.HTTP.UseGzip = parsed
	}
	if value := strings.TrimSpace(env["APPUTILS_HTTP_CONCURRENCY"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid APPUTILS_HTTP_CONCURRENCY value %q: %w", value, err)
		}
		cfg.HTTP.Concurrency = parsed
	}
	if value := strings.TrimSpace(env["APPUTILS_HTTP_USER"]); value != "" {
		if cfg.HTTP.Auth == nil {
			cfg.HTTP.Auth = &Auth{}
		}
		cfg.HTTP.Auth.User = value
	}
	if value, ok := env["APPUTILS_HTTP_PASSWORD"]; ok && value != "" {
		if cfg.HTTP.Auth == nil {
			cfg.HTTP.Auth = &Auth{}
		}
		cfg.HTTP.Auth.Password = value
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Progress.Style = strings.ToLower(strings.TrimSpace(cfg.Progress.Style))
	if cfg.HTTP.Headers == nil {
		cfg.HTTP.Headers = map[string]string{}
	}
	if cfg.HTTP.Auth != nil {
		cfg.HTTP.Auth.User = strings.TrimSpace(cfg.HTTP.Auth.User)
	}
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}
