package progressbar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Format renders a template with named placeholders of the form {name} or
// {name:spec}, where spec is [[fill]align][width] and align is one of <, >
// or ^. Doubled braces are literal. Placeholders without a field are kept
// verbatim, so a template never fails to render.
func Format(template string, fields map[string]any) string {
	var sb strings.Builder
	sb.Grow(len(template) + 32)

	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			sb.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			sb.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				sb.WriteString(template[i:])
				return sb.String()
			}
			field := template[i+1 : i+1+end]
			name, spec, _ := strings.Cut(field, ":")
			value, ok := fields[name]
			if !ok {
				sb.WriteString(template[i : i+end+2])
			} else {
				sb.WriteString(formatField(value, spec))
			}
			i += end + 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func formatField(value any, spec string) string {
	text, numeric := stringify(value)
	if spec == "" {
		return text
	}

	fill := " "
	align := byte('<')
	if numeric {
		align = '>'
	}

	rest := spec
	if r := []rune(spec); len(r) >= 2 && isAlign(r[1]) {
		fill = string(r[0])
		align = byte(r[1])
		rest = string(r[2:])
	} else if len(spec) >= 1 && isAlign(rune(spec[0])) {
		align = spec[0]
		rest = spec[1:]
	}

	width, err := strconv.Atoi(rest)
	if err != nil {
		return text
	}
	pad := width - runewidth.StringWidth(text)
	if pad <= 0 {
		return text
	}

	switch align {
	case '>':
		return strings.Repeat(fill, pad) + text
	case '^':
		left := pad / 2
		return strings.Repeat(fill, left) + text + strings.Repeat(fill, pad-left)
	default:
		return text + strings.Repeat(fill, pad)
	}
}

func isAlign(r rune) bool {
	return r == '<' || r == '>' || r == '^'
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, false
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), false
	}
}
