package main

import (
	"os"
	"runtime/debug"

	"github.com/jaa/apputils/internal/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	build := cli.BuildInfo{Version: version, Commit: commit, Date: date}
	fillFromModule(&build)

	code := cli.Execute(build, cli.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})
	os.Exit(code)
}

// fillFromModule uses the VCS stamp of `go install` builds when ldflags
// were not set.
func fillFromModule(build *cli.BuildInfo) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if build.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		build.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if build.Commit == "" {
				build.Commit = setting.Value
			}
		case "vcs.time":
			if build.Date == "" {
				build.Date = setting.Value
			}
		}
	}
}
