package progressbar

import (
	"fmt"
	"sort"
	"strings"
)

// Template placeholders:
//
//	begin_line     carriage return that moves the cursor back for an in-place redraw
//	text           caption of the bar
//	status         free-form text that can change on every update
//	end_line       padding that erases leftovers of a previously longer status
//	filled         filled part of the bar
//	reverse_filled filled part reversed, for infinite-style layouts
//	empty          not filled part of the bar
//	value          current value
//	max            target value
//	items_per_sec  units per second
//	percents_done  percents done
const (
	FormatDefault        = "{begin_line}{text} {percents_done:>3}% [{filled}{empty}] {value}/{max}  {items_per_sec} i/s"
	FormatShort          = "{begin_line}{text} {percents_done:>3}% [{filled}{empty}] {value}/{max}"
	FormatSimple         = "{begin_line}{text} [{filled}{empty}] {percents_done:>3}%"
	FormatStatus         = "{begin_line}{text}: |{filled}{empty}| {percents_done:>3}%  {value}/{max}   [{status}]{end_line}"
	FormatStatusSimple   = "{begin_line}|{filled}{empty}| {percents_done:>3}%   [{status}]{end_line}"
	FormatInfiniteSimple = "{begin_line} {filled}{empty} [text] {empty}{reverse_filled}"
)

var formats = map[string]string{
	"default":         FormatDefault,
	"short":           FormatShort,
	"simple":          FormatSimple,
	"status":          FormatStatus,
	"status-simple":   FormatStatusSimple,
	"infinite-simple": FormatInfiniteSimple,
}

// CharacterStyle is the glyph pair used for empty and filled segments.
type CharacterStyle struct {
	Blank string
	Fill  string
}

var (
	StyleDefault = CharacterStyle{Blank: " ", Fill: "="}
	StyleSimple  = CharacterStyle{Blank: "-", Fill: "#"}
	StyleGraphic = CharacterStyle{Blank: "░", Fill: "█"}
)

var styles = map[string]CharacterStyle{
	"default": StyleDefault,
	"simple":  StyleSimple,
	"graphic": StyleGraphic,
}

// FormatByName resolves a named template preset.
func FormatByName(name string) (string, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown progress template %q (expected: %s)", name, strings.Join(FormatNames(), ", "))
	}
	return format, nil
}

// StyleByName resolves a named character style preset.
func StyleByName(name string) (CharacterStyle, error) {
	style, ok := styles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return CharacterStyle{}, fmt.Errorf("unknown progress style %q (expected: %s)", name, strings.Join(StyleNames(), ", "))
	}
	return style, nil
}

func FormatNames() []string {
	return sortedKeys(formats)
}

func StyleNames() []string {
	return sortedKeys(styles)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options is the static configuration of a bar. The zero value is not
// useful; build it with NewOptions or DefaultOptions. Options are values, so
// sharing one between bars never lets a bar alter another's configuration.
type Options struct {
	fillChar  string
	blankChar string
	template  string
}

func NewOptions(style CharacterStyle, template string) Options {
	return Options{
		fillChar:  style.Fill,
		blankChar: style.Blank,
		template:  template,
	}
}

func DefaultOptions() Options {
	return NewOptions(StyleDefault, FormatDefault)
}

func (o Options) FillChar() string {
	return o.fillChar
}

func (o Options) BlankChar() string {
	return o.blankChar
}

func (o Options) Template() string {
	return o.template
}
