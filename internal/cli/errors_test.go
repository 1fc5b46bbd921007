package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jaa/apputils/internal/exitcode"
)

func TestMapExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitcode.Success},
		{name: "coded", err: &ExitError{Code: exitcode.InvalidConfig, Err: errors.New("bad")}, want: exitcode.InvalidConfig},
		{name: "wrapped coded", err: fmt.Errorf("outer: %w", withExitCode(exitcode.HTTPError, errors.New("404"))), want: exitcode.HTTPError},
		{name: "unknown command", err: errors.New("unknown command \"x\" for \"apputils\""), want: exitcode.InvalidUsage},
		{name: "runtime", err: runtimeExit(errors.New("boom")), want: exitcode.RuntimeFailure},
		{name: "interrupted", err: runtimeExit(fmt.Errorf("request: %w", context.Canceled)), want: exitcode.Interrupted},
		{name: "generic", err: errors.New("boom"), want: exitcode.RuntimeFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapExitCode(tc.err); got != tc.want {
				t.Fatalf("mapExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}
