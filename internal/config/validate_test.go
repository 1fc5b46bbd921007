package config

import "testing"

func TestValidateSuccess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Progress.Template = "{begin_line}{text} {value}"
	cfg.HTTP.Auth = &Auth{User: "amy", Password: "secret"}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateFailure(t *testing.T) {
	cfg := Config{
		Version: 2,
		Progress: Progress{
			Width:    0,
			Style:    "fancy",
			Template: "nope",
		},
		HTTP: HTTP{
			TimeoutSeconds: 0,
			Concurrency:    -1,
			Headers:        map[string]string{"Bad Header": "x"},
			Auth:           &Auth{User: ""},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Problems) != 8 {
		t.Fatalf("expected 8 problems, got %d: %v", len(validationErr.Problems), validationErr.Problems)
	}
}
