package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// SupportsInPlaceUpdates reports whether dst is a terminal that honours
// carriage returns, so a progress bar may redraw its line.
func SupportsInPlaceUpdates(dst io.Writer) bool {
	file, ok := dst.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
