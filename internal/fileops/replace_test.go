package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReplaceFileSafelyReplacesExistingTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "archive.tar.gz")
	replacement := TempPath(target)

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.WriteFile(replacement, []byte("new"), 0o644); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	if err := ReplaceFileSafely(replacement, target); err != nil {
		t.Fatalf("replace file safely: %v", err)
	}

	payload, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(payload) != "new" {
		t.Fatalf("expected replaced payload, got %q", string(payload))
	}
	if _, err := os.Stat(replacement); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected replacement file to be moved, stat err: %v", err)
	}
	if _, err := os.Stat(target + backupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected backup cleanup, stat err: %v", err)
	}
}

func TestReplaceFileSafelyCreatesMissingTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "fresh.json")
	replacement := TempPath(target)
	if err := os.WriteFile(replacement, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	if err := ReplaceFileSafely(replacement, target); err != nil {
		t.Fatalf("replace file safely: %v", err)
	}
	if payload, err := os.ReadFile(target); err != nil || string(payload) != "{}" {
		t.Fatalf("unexpected target payload %q (err %v)", payload, err)
	}
}

func TestReplaceFileSafelyRejectsBadPaths(t *testing.T) {
	tmp := t.TempDir()
	tests := []struct {
		name   string
		temp   string
		target string
	}{
		{name: "empty temp", temp: " ", target: filepath.Join(tmp, "a")},
		{name: "empty target", temp: filepath.Join(tmp, "a"), target: ""},
		{name: "same path", temp: filepath.Join(tmp, "a"), target: filepath.Join(tmp, "a")},
		{name: "missing temp", temp: filepath.Join(tmp, "missing"), target: filepath.Join(tmp, "a")},
		{name: "directory temp", temp: tmp, target: filepath.Join(tmp, "a")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := ReplaceFileSafely(tc.temp, tc.target); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestReplaceFileSafelyRollbackRestoresOriginalTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "archive.tar.gz")
	replacement := TempPath(target)

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.WriteFile(replacement, []byte("new"), 0o644); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	origRename := renameFile
	renameFile = func(oldpath string, newpath string) error {
		if oldpath == replacement && newpath == target {
			return errors.New("injected rename failure")
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() {
		renameFile = origRename
	})

	err := ReplaceFileSafely(replacement, target)
	if err == nil {
		t.Fatalf("expected replacement failure")
	}

	payload, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("read restored target: %v", readErr)
	}
	if string(payload) != "old" {
		t.Fatalf("expected rollback to restore original payload, got %q", string(payload))
	}
	if _, statErr := os.Stat(target + backupSuffix); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected backup to be restored, stat err: %v", statErr)
	}
}

func TestTempPathIsUniqueSibling(t *testing.T) {
	target := filepath.Join("downloads", "video.mp4")
	first := TempPath(target)
	second := TempPath(target)

	if first == second {
		t.Fatalf("expected unique temp paths, got %q twice", first)
	}
	if filepath.Dir(first) != "downloads" {
		t.Fatalf("expected temp path next to target, got %q", first)
	}
	base := filepath.Base(first)
	if !strings.HasPrefix(base, ".video.mp4.") || !strings.HasSuffix(base, tempSuffix) {
		t.Fatalf("unexpected temp name %q", base)
	}
}

func TestCreateTempAndRemove(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.bin")
	file, err := CreateTemp(target)
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	path := file.Name()
	file.Close()

	if filepath.Dir(path) != filepath.Dir(target) {
		t.Fatalf("expected temp file next to target, got %q", path)
	}
	if err := RemoveTemp(path); err != nil {
		t.Fatalf("remove temp: %v", err)
	}
	if err := RemoveTemp(path); err != nil {
		t.Fatalf("removing a missing temp file should succeed: %v", err)
	}
	if _, err := CreateTemp(""); err == nil {
		t.Fatalf("expected error for empty target")
	}
}
