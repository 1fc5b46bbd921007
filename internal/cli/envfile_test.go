package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnvFilesLoadsEnvAndLocalOverrides(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	localPath := filepath.Join(tmp, ".env.local")

	if err := os.WriteFile(envPath, []byte("APPUTILS_HTTP_USER=env-user\nAPPUTILS_PROGRESS_WIDTH=30\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.WriteFile(localPath, []byte("APPUTILS_HTTP_USER=local-user\n"), 0o644); err != nil {
		t.Fatalf("write .env.local: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, nil, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["APPUTILS_HTTP_USER"] != "local-user" {
		t.Fatalf("expected .env.local to override .env, got %q", values["APPUTILS_HTTP_USER"])
	}
	if values["APPUTILS_PROGRESS_WIDTH"] != "30" {
		t.Fatalf("expected APPUTILS_PROGRESS_WIDTH from .env, got %q", values["APPUTILS_PROGRESS_WIDTH"])
	}
}

func TestLoadDotEnvFilesDoesNotOverrideProcessEnv(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envPath, []byte("APPUTILS_HTTP_PASSWORD=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, []string{"APPUTILS_HTTP_PASSWORD=already-set"}, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if _, exists := values["APPUTILS_HTTP_PASSWORD"]; exists {
		t.Fatalf("expected existing process env to be protected")
	}
}

func TestLoadDotEnvFilesSupportsExportAndQuotedValues(t *testing.T) {
	tmp := t.TempDir()
	payload := "# local settings\nexport APPUTILS_PROGRESS_TEMPLATE=\"{text} {value}/{max}\"\nAPPUTILS_HTTP_PASSWORD='s3cret'\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	if err := loadDotEnvFiles(tmp, nil, func(k, v string) error {
		values[k] = v
		return nil
	}); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["APPUTILS_PROGRESS_TEMPLATE"] != "{text} {value}/{max}" {
		t.Fatalf("unexpected double-quoted value %q", values["APPUTILS_PROGRESS_TEMPLATE"])
	}
	if values["APPUTILS_HTTP_PASSWORD"] != "s3cret" {
		t.Fatalf("unexpected single-quoted value %q", values["APPUTILS_HTTP_PASSWORD"])
	}
}

func TestLoadDotEnvFilesWithoutFiles(t *testing.T) {
	called := false
	err := loadDotEnvFiles(t.TempDir(), nil, func(k, v string) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if called {
		t.Fatalf("expected no variables without dotenv files")
	}
}
