package progressbar

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestBar(t *testing.T, text string, width int, template string) (*Bar, *bytes.Buffer, *fakeClock) {
	t.Helper()
	buf := &bytes.Buffer{}
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	bar, err := NewWithConfig(text, width, NewOptions(StyleSimple, template), Config{
		Output: buf,
		Size:   FixedSize(40, 10),
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("new bar: %v", err)
	}
	return bar, buf, clock
}

func TestNewRejectsNonPositiveWidth(t *testing.T) {
	for _, width := range []int{0, -3} {
		if _, err := New("x", width, DefaultOptions()); !errors.Is(err, ErrInvalidWidth) {
			t.Fatalf("New(width=%d) error = %v, want ErrInvalidWidth", width, err)
		}
	}
}

func TestConsoleWidthFallsBackWhenSizeUnknown(t *testing.T) {
	bar, err := NewWithConfig("x", 10, DefaultOptions(), Config{Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("new bar: %v", err)
	}
	if bar.ConsoleWidth() != 80 {
		t.Fatalf("expected fallback console width 80, got %d", bar.ConsoleWidth())
	}

	bar, err = NewWithConfig("x", 10, DefaultOptions(), Config{
		Output: &bytes.Buffer{},
		Size:   func() (int, int, error) { return 0, 0, errors.New("no tty") },
	})
	if err != nil {
		t.Fatalf("new bar: %v", err)
	}
	if bar.ConsoleWidth() != 80 {
		t.Fatalf("expected fallback console width 80 on size error, got %d", bar.ConsoleWidth())
	}
}

func TestFiniteSegmentsFloorIndependently(t *testing.T) {
	tests := []struct {
		name  string
		width int
		max   int64
		value int64
		want  string
	}{
		{name: "three of seven", width: 20, max: 7, value: 3, want: "42|########|------------"},
		{name: "one of three", width: 10, max: 3, value: 1, want: "33|###|-------"},
		{name: "two of three", width: 7, max: 3, value: 2, want: "66|####|---"},
		{name: "zero", width: 5, max: 9, value: 0, want: "0||-----"},
		{name: "complete", width: 4, max: 8, value: 8, want: "100|####|"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bar, buf, _ := newTestBar(t, "copy", tc.width, "{percents_done}|{filled}|{empty}")
			if err := bar.Start(tc.max); err != nil {
				t.Fatalf("start: %v", err)
			}
			buf.Reset()
			if err := bar.Progress(tc.value); err != nil {
				t.Fatalf("progress: %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("frame = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStartClearsLineAndRendersFirstFrame(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 4, "{text} {value}/{max}")
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	want := "\r" + strings.Repeat(" ", 39) + "copy 0/10"
	if got := buf.String(); got != want {
		t.Fatalf("start output = %q, want %q", got, want)
	}
	if bar.Status() != StatusStarted {
		t.Fatalf("expected started status, got %s", bar.Status())
	}
}

func TestStartWithNonPositiveMaxIsInfinite(t *testing.T) {
	for _, max := range []int64{0, -1} {
		bar, buf, _ := newTestBar(t, "copy", 5, "{percents_done}|{filled}{empty}")
		if err := bar.Start(max); err != nil {
			t.Fatalf("start: %v", err)
		}
		if !bar.Infinite() {
			t.Fatalf("Start(%d) should enter infinite mode", max)
		}
		frame := strings.TrimLeft(buf.String(), "\r ")
		if frame != "100|#----" {
			t.Fatalf("Start(%d) first frame = %q, want infinite layout", max, frame)
		}
	}
}

func TestExceedingMaxEscalatesToInfiniteForGood(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 5, "{percents_done}|{filled}{empty}")
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if bar.Infinite() {
		t.Fatalf("expected finite mode after Start(10)")
	}

	buf.Reset()
	if err := bar.Progress(11); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !bar.Infinite() {
		t.Fatalf("expected infinite mode after exceeding max")
	}
	if !strings.HasPrefix(buf.String(), "\r"+strings.Repeat(" ", 39)) {
		t.Fatalf("expected line to be cleared on escalation, got %q", buf.String())
	}

	buf.Reset()
	if err := bar.Progress(5); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !bar.Infinite() {
		t.Fatalf("infinite mode must not revert within a session")
	}
	if !strings.HasPrefix(buf.String(), "100|") {
		t.Fatalf("expected percent pinned to 100, got %q", buf.String())
	}
}

func TestInfiniteIndicatorWrapsToOne(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 4, "{filled}{empty};")
	if err := bar.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := int64(1); i <= 4; i++ {
		if err := bar.Progress(i); err != nil {
			t.Fatalf("progress: %v", err)
		}
	}

	frames := strings.Split(strings.TrimLeft(buf.String(), "\r "), ";")
	want := []string{"#---", "-#--", "--#-", "#---", "-#--", ""}
	if len(frames) != len(want) {
		t.Fatalf("frames = %q, want %q", frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Fatalf("frame %d = %q, want %q (all: %q)", i, frames[i], want[i], frames)
		}
	}
}

func TestReverseFilledMirrorsIndicator(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 5, "{filled}|{reverse_filled}")
	if err := bar.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	buf.Reset()
	if err := bar.Progress(1); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if got := buf.String(); got != "-#|#-" {
		t.Fatalf("frame = %q, want %q", got, "-#|#-")
	}
}

func TestIncAccumulatesValue(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 10, "{value}/{max}")
	if err := bar.Start(20); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := bar.Inc(5); err != nil {
		t.Fatalf("inc: %v", err)
	}
	buf.Reset()
	if err := bar.Inc(5); err != nil {
		t.Fatalf("inc: %v", err)
	}
	if bar.Value() != 10 {
		t.Fatalf("expected tracked value 10, got %d", bar.Value())
	}
	if got := buf.String(); got != "10/20" {
		t.Fatalf("frame = %q, want %q", got, "10/20")
	}
}

func TestIncContinuesFromLastProgressValue(t *testing.T) {
	bar, _, _ := newTestBar(t, "copy", 10, "{value}")
	if err := bar.Start(20); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := bar.Progress(7); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := bar.Inc(1); err != nil {
		t.Fatalf("inc: %v", err)
	}
	if bar.Value() != 8 {
		t.Fatalf("expected value 8, got %d", bar.Value())
	}
}

func TestShorterStatusPadsEndOfLine(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 10, "[{status}]{end_line}|")
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}

	steps := []struct {
		value  int64
		status *string
		want   string
	}{
		{value: 1, status: strPtr("long status"), want: "[long status]|"},
		{value: 2, status: strPtr("short"), want: "[short]      |"},
		{value: 3, status: nil, want: "[short]|"},
		{value: 4, status: strPtr("longer again"), want: "[longer again]|"},
	}
	for _, step := range steps {
		buf.Reset()
		var err error
		if step.status == nil {
			err = bar.Progress(step.value)
		} else {
			err = bar.ProgressStatus(step.value, *step.status)
		}
		if err != nil {
			t.Fatalf("progress: %v", err)
		}
		if got := buf.String(); got != step.want {
			t.Fatalf("frame = %q, want %q", got, step.want)
		}
	}
}

func TestRateSamplesOncePerWholeSecond(t *testing.T) {
	bar, _, clock := newTestBar(t, "copy", 10, "{items_per_sec}")
	if err := bar.Start(1000); err != nil {
		t.Fatalf("start: %v", err)
	}

	steps := []struct {
		advance time.Duration
		value   int64
		want    int
	}{
		{advance: 500 * time.Millisecond, value: 10, want: 0},
		{advance: 600 * time.Millisecond, value: 20, want: 20},
		{advance: 300 * time.Millisecond, value: 30, want: 20},
		{advance: 600 * time.Millisecond, value: 40, want: 20},
		{advance: 2 * time.Second, value: 100, want: 30},
	}
	for i, step := range steps {
		clock.Advance(step.advance)
		if err := bar.Progress(step.value); err != nil {
			t.Fatalf("progress: %v", err)
		}
		if got := bar.Rate(); got != step.want {
			t.Fatalf("step %d: rate = %d, want %d", i, got, step.want)
		}
	}
}

func TestTimingTruncatesRate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	timer := newTiming(clock.Now)
	timer.init(10)

	clock.Advance(3 * time.Second)
	timer.tick(10)
	if timer.rate() != 3 {
		t.Fatalf("expected truncated rate 3, got %d", timer.rate())
	}

	clock.Advance(time.Second)
	timer.tick(11)
	if timer.rate() != 1 {
		t.Fatalf("expected rate 11/1-10 = 1, got %d", timer.rate())
	}
}

func TestStopHiddenWithStatus(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 10, FormatDefault)
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	buf.Reset()
	if err := bar.StopStatus(true, "done"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := "\rcopy - done" + strings.Repeat(" ", 40-4-3-4-1) + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("stop output = %q, want %q", got, want)
	}
	if bar.Status() != StatusStopped {
		t.Fatalf("expected stopped status")
	}
}

func TestStopHiddenWithoutStatusOmitsSeparator(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 10, FormatDefault)
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	buf.Reset()
	if err := bar.Stop(true); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := "\rcopy" + strings.Repeat(" ", 40-4-1) + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("stop output = %q, want %q", got, want)
	}
}

func TestStopRendersFinalFrameAtMax(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 4, "{percents_done}% [{status}] {value}/{max}")
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := bar.Progress(3); err != nil {
		t.Fatalf("progress: %v", err)
	}
	buf.Reset()
	if err := bar.StopStatus(false, "ok"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := buf.String(); got != "100% [ok] 10/10\n" {
		t.Fatalf("stop output = %q", got)
	}
}

func TestUpdatesRequireActiveSession(t *testing.T) {
	bar, _, _ := newTestBar(t, "copy", 4, FormatDefault)
	if err := bar.Progress(1); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Progress before Start: %v, want ErrNotStarted", err)
	}
	if err := bar.Inc(1); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Inc before Start: %v, want ErrNotStarted", err)
	}
	if err := bar.Stop(false); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Stop before Start: %v, want ErrNotStarted", err)
	}
}

func TestResetStopsSessionAndRendersZero(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 4, "{value}/{max} {percents_done}")
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := bar.Progress(4); err != nil {
		t.Fatalf("progress: %v", err)
	}
	buf.Reset()
	if err := bar.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := buf.String(); got != "0/0 0" {
		t.Fatalf("reset frame = %q", got)
	}
	if bar.Status() != StatusStopped || bar.Value() != 0 {
		t.Fatalf("expected stopped bar at zero, got %s value=%d", bar.Status(), bar.Value())
	}
	if err := bar.Progress(1); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Progress after Reset: %v, want ErrNotStarted", err)
	}

	if err := bar.Start(5); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := bar.Progress(5); err != nil {
		t.Fatalf("progress in second session: %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteFailurePropagates(t *testing.T) {
	bar, err := NewWithConfig("copy", 4, DefaultOptions(), Config{Output: failingWriter{}, Size: FixedSize(20, 5)})
	if err != nil {
		t.Fatalf("new bar: %v", err)
	}
	err = bar.Start(10)
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("expected write error, got %v", err)
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() error {
	f.flushes++
	return nil
}

func TestFramesAreFlushed(t *testing.T) {
	out := &flushRecorder{}
	bar, err := NewWithConfig("copy", 4, DefaultOptions(), Config{Output: out, Size: FixedSize(20, 5)})
	if err != nil {
		t.Fatalf("new bar: %v", err)
	}
	if err := bar.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if out.flushes != 2 {
		t.Fatalf("expected clear line and first frame to be flushed, got %d flushes", out.flushes)
	}
}

func TestDefaultTemplateRendering(t *testing.T) {
	bar, buf, _ := newTestBar(t, "copy", 10, FormatDefault)
	if err := bar.Start(4); err != nil {
		t.Fatalf("start: %v", err)
	}
	buf.Reset()
	if err := bar.Progress(1); err != nil {
		t.Fatalf("progress: %v", err)
	}
	want := "\rcopy  25% [##--------] 1/4  0 i/s"
	if got := buf.String(); got != want {
		t.Fatalf("frame = %q, want %q", got, want)
	}
}

func strPtr(s string) *string {
	return &s
}
