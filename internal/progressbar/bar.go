package progressbar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

var (
	ErrInvalidWidth = errors.New("progressbar: width must be > 0")
	ErrNotStarted   = errors.New("progressbar: session not started")
)

const (
	beginLine     = "\r"
	lineSeparator = "\n"
	infiniteWidth = 1
	stopSeparator = " - "
)

type Status int

const (
	StatusStopped Status = iota
	StatusStarted
)

func (s Status) String() string {
	if s == StatusStarted {
		return "started"
	}
	return "stopped"
}

// Config carries the construction-time dependencies of a bar. Zero fields
// take their defaults: os.Stdout, the terminal size of Output, time.Now.
type Config struct {
	Output io.Writer
	Size   SizeFunc
	Now    func() time.Time
}

type flushWriter interface {
	Flush() error
}

// Bar renders a single-line progress bar. A bar runs one session at a time
// (Start, updates, Stop or Reset) and is not safe for concurrent use.
type Bar struct {
	out   io.Writer
	opts  Options
	timer *timing

	text         string
	statusMsg    string
	width        float64
	max          float64
	value        float64
	status       Status
	infinite     bool
	infinitePos  int
	consoleWidth int
}

func New(text string, width int, opts Options) (*Bar, error) {
	return NewWithConfig(text, width, opts, Config{})
}

func NewWithConfig(text string, width int, opts Options, cfg Config) (*Bar, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, width)
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Size == nil {
		cfg.Size = TerminalSize(cfg.Output)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cols, _ := consoleSize(cfg.Size)
	return &Bar{
		out:          cfg.Output,
		opts:         opts,
		timer:        newTiming(cfg.Now),
		text:         text,
		width:        float64(width),
		consoleWidth: cols,
	}, nil
}

func (b *Bar) Value() int64 {
	return int64(b.value)
}

func (b *Bar) Status() Status {
	return b.status
}

func (b *Bar) Infinite() bool {
	return b.infinite
}

func (b *Bar) Rate() int {
	return b.timer.rate()
}

func (b *Bar) ConsoleWidth() int {
	return b.consoleWidth
}

// Start begins a session. A max of zero or less means the total is unknown
// and the bar renders in infinite mode.
func (b *Bar) Start(max int64) error {
	b.timer.init(float64(max))

	b.infinite = max <= 0
	b.infinitePos = 0

	b.max = float64(max)
	if err := b.fillEmpty(); err != nil {
		return err
	}
	b.value = 0
	if err := b.render(0, nil); err != nil {
		return err
	}
	b.status = StatusStarted
	return nil
}

// Progress renders the bar at value, keeping the current status text.
func (b *Bar) Progress(value int64) error {
	return b.progress(float64(value), nil)
}

// ProgressStatus renders the bar at value and replaces the status text.
func (b *Bar) ProgressStatus(value int64, status string) error {
	return b.progress(float64(value), &status)
}

// Inc advances the last value by step.
func (b *Bar) Inc(step int64) error {
	return b.inc(float64(step), nil)
}

func (b *Bar) IncStatus(step int64, status string) error {
	return b.inc(float64(step), &status)
}

func (b *Bar) inc(step float64, status *string) error {
	if b.status != StatusStarted {
		return ErrNotStarted
	}
	return b.progress(b.value+step, status)
}

func (b *Bar) progress(value float64, status *string) error {
	if b.status != StatusStarted {
		return ErrNotStarted
	}
	b.value = value
	return b.render(value, status)
}

// Reset ends the session without a trailing newline and redraws the bar at
// zero. The caption is kept.
func (b *Bar) Reset() error {
	b.status = StatusStopped
	b.max = 0
	b.value = 0
	return b.render(0, nil)
}

// Stop finalizes the session and terminates the line. With hide set, the
// bar is replaced by the caption alone.
func (b *Bar) Stop(hide bool) error {
	return b.stop(hide, nil)
}

// StopStatus is Stop with a final status text.
func (b *Bar) StopStatus(hide bool, status string) error {
	return b.stop(hide, &status)
}

func (b *Bar) stop(hide bool, status *string) error {
	if b.status != StatusStarted {
		return ErrNotStarted
	}
	b.status = StatusStopped

	if hide {
		sep, newStatus := stopSeparator, ""
		if status == nil {
			sep = ""
		} else {
			newStatus = *status
		}
		fillSpace := b.consoleWidth - cells(b.text) - cells(sep) - cells(newStatus) - len(lineSeparator)
		if err := b.write(beginLine + b.text + sep + newStatus + repeat(" ", fillSpace)); err != nil {
			return err
		}
	} else if err := b.render(float64(int64(b.max)), status); err != nil {
		return err
	}

	return b.write(lineSeparator)
}

func (b *Bar) render(value float64, status *string) error {
	spaceFillers := 0
	if status != nil {
		// a shorter status must overwrite what the longer one left behind
		if b.statusMsg != "" {
			if diff := cells(b.statusMsg) - cells(*status); diff > 0 {
				spaceFillers = diff
			}
		}
		b.statusMsg = *status
	}

	if !b.infinite && value > b.max {
		b.infinite = true
		if err := b.fillEmpty(); err != nil {
			return err
		}
	}

	b.timer.tick(value)

	var percentDone int
	var filled, empty string
	if !b.infinite {
		percentDone = b.percentDone(value)
		filledCount := b.filledSpace(percentDone)
		filled = repeat(b.opts.FillChar(), filledCount)
		empty = repeat(b.opts.BlankChar(), b.emptySpace(filledCount))
	} else {
		percentDone = 100
		if b.infinitePos+infiniteWidth >= int(b.width) {
			b.infinitePos = 1
		} else {
			b.infinitePos++
		}
		filled = repeat(b.opts.BlankChar(), b.infinitePos-infiniteWidth) + repeat(b.opts.FillChar(), infiniteWidth)
		empty = repeat(b.opts.BlankChar(), int(b.width-float64(b.infinitePos)))
	}

	line := Format(b.opts.Template(), map[string]any{
		"begin_line":     beginLine,
		"text":           b.text,
		"status":         b.statusMsg,
		"end_line":       repeat(" ", spaceFillers),
		"filled":         filled,
		"reverse_filled": reverse(filled),
		"empty":          empty,
		"value":          int64(value),
		"max":            int64(b.max),
		"items_per_sec":  b.timer.rate(),
		"percents_done":  percentDone,
	})
	return b.write(line)
}

// percentDone, filledSpace and emptySpace floor independently; the drawn
// bar may miss the configured width by one cell.
func (b *Bar) percentDone(value float64) int {
	if b.max <= 0 {
		return 0
	}
	return int(value / b.max * 100)
}

func (b *Bar) filledSpace(percent int) int {
	return int(b.width / 100 * float64(percent))
}

func (b *Bar) emptySpace(filled int) int {
	return int(b.width - float64(filled))
}

func (b *Bar) fillEmpty() error {
	return b.write(beginLine + repeat(" ", b.consoleWidth-len(beginLine)))
}

func (b *Bar) write(s string) error {
	if _, err := io.WriteString(b.out, s); err != nil {
		return fmt.Errorf("write progress frame: %w", err)
	}
	if f, ok := b.out.(flushWriter); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush progress frame: %w", err)
		}
	}
	return nil
}

func repeat(s string, count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(s, count)
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func cells(s string) int {
	return runewidth.StringWidth(s)
}
