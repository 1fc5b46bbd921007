package progressbar

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	fallbackColumns = 80
	fallbackRows    = 24
)

var errNotTerminal = errors.New("output is not a terminal")

// SizeFunc reports the terminal size in columns and rows.
type SizeFunc func() (cols, rows int, err error)

// TerminalSize returns a SizeFunc querying the terminal behind w. Writers
// that are not terminals report an error, which makes a bar fall back to
// 80x24.
func TerminalSize(w io.Writer) SizeFunc {
	return func() (int, int, error) {
		file, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(file.Fd())) {
			return 0, 0, errNotTerminal
		}
		return term.GetSize(int(file.Fd()))
	}
}

// FixedSize always reports the given size.
func FixedSize(cols, rows int) SizeFunc {
	return func() (int, int, error) {
		return cols, rows, nil
	}
}

func consoleSize(size SizeFunc) (int, int) {
	if size == nil {
		return fallbackColumns, fallbackRows
	}
	cols, rows, err := size()
	if err != nil || cols <= 0 {
		return fallbackColumns, fallbackRows
	}
	if rows <= 0 {
		rows = fallbackRows
	}
	return cols, rows
}
