package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

type EventEmitter interface {
	Emit(event Event) error
}

// JSONEmitter writes one JSON object per line. Events without a timestamp
// are stamped on the way out.
type JSONEmitter struct {
	enc *json.Encoder
	now func() time.Time
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc, now: time.Now}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now().UTC()
	}
	return e.enc.Encode(event)
}

type HumanEmitter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool
}

func NewHumanEmitter(stdout, stderr io.Writer, quiet, verbose bool) *HumanEmitter {
	return &HumanEmitter{stdout: stdout, stderr: stderr, quiet: quiet, verbose: verbose}
}

func (e *HumanEmitter) Emit(event Event) error {
	if !e.visible(event) {
		return nil
	}
	line := humanLine(event)
	switch event.Level {
	case LevelError:
		_, err := fmt.Fprintln(e.stderr, "ERROR:", line)
		return err
	case LevelWarn:
		_, err := fmt.Fprintln(e.stderr, "WARN:", line)
		return err
	default:
		_, err := fmt.Fprintln(e.stdout, line)
		return err
	}
}

// visible reports whether event survives the quiet and verbose settings.
// Errors always do; quiet keeps only outcomes; started events need verbose.
func (e *HumanEmitter) visible(event Event) bool {
	switch {
	case event.Level == LevelError:
		return true
	case e.quiet:
		return event.Level != LevelWarn && event.Event.finished()
	case event.Event.started():
		return e.verbose
	}
	return true
}

func humanLine(event Event) string {
	if event.Message != "" {
		return event.Message
	}
	if event.Target != "" {
		return fmt.Sprintf("%s %s", event.Event, event.Target)
	}
	return string(event.Event)
}

type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (e *MultiEmitter) Emit(event Event) error {
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			return err
		}
	}
	return nil
}

// Tally counts events by name and level before passing them on.
type Tally struct {
	next   EventEmitter
	mu     sync.Mutex
	counts map[tallyKey]int
}

type tallyKey struct {
	name  EventName
	level Level
}

func NewTally(next EventEmitter) *Tally {
	return &Tally{next: next, counts: map[tallyKey]int{}}
}

func (t *Tally) Emit(event Event) error {
	t.mu.Lock()
	t.counts[tallyKey{name: event.Event, level: event.Level}]++
	t.mu.Unlock()
	return t.next.Emit(event)
}

// Count returns how many name events were emitted at level.
func (t *Tally) Count(name EventName, level Level) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[tallyKey{name: name, level: level}]
}
