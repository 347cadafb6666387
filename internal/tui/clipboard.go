package tui

import (
	"encoding/json"
	"html"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"unicode"

	"github.com/atotto/clipboard"

	"tornado/internal/canvas"
)

type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

// SystemClipboard talks to the OS clipboard.
func SystemClipboard() Clipboard { return systemClipboard{} }

func (systemClipboard) ReadAll() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(out), nil
		}
	}
	return clipboard.ReadAll()
}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// clipPayload is what copy puts on the clipboard. Pasting it back restores
// the nodes instead of creating a note from the JSON text.
type clipPayload struct {
	Tornado int           `json:"tornado"`
	Nodes   []canvas.Node `json:"nodes"`
}

const clipVersion = 1

func encodeClip(nodes []canvas.Node) (string, error) {
	data, err := json.Marshal(clipPayload{Tornado: clipVersion, Nodes: nodes})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeClip(text string) ([]canvas.Node, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}
	var p clipPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, false
	}
	if p.Tornado != clipVersion || len(p.Nodes) == 0 {
		return nil, false
	}
	var nodes []canvas.Node
	for _, n := range p.Nodes {
		if !n.Type.Valid() || n.Width <= 0 || n.Height <= 0 {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, len(nodes) > 0
}

// cleanClipboardText turns whatever the clipboard held into plain text for
// a note: RTF and HTML markup is stripped, control characters dropped and
// line endings normalized.
func cleanClipboardText(text string) string {
	if text == "" {
		return text
	}
	switch {
	case isRTF(text):
		text = stripRTF(text)
	case isHTML(text):
		text = stripHTML(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.ReplaceAll(out, "\r", "\n")
}

func isRTF(text string) bool {
	return strings.HasPrefix(text, "{\\rtf") || strings.Contains(text, "\\rtf1")
}

func isHTML(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") &&
		(strings.Contains(t, "<html") || strings.Contains(t, "<body") || strings.Contains(t, "<div") || strings.Contains(t, "<p"))
}

// rtfDestinations are groups whose text is document metadata, not content.
var rtfDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"listtable": true, "listoverridetable": true, "rsidtbl": true,
	"generator": true, "xmlnstbl": true, "latentstyles": true,
	"themedata": true, "datastore": true, "filetbl": true, "revtbl": true,
	"pict": true, "object": true, "header": true, "footer": true,
}

// rtfDestination reports whether the group starting just after '{' is one
// to drop: an ignorable \* group or a known destination.
func rtfDestination(rest []rune) bool {
	if len(rest) < 2 || rest[0] != '\\' {
		return false
	}
	if rest[1] == '*' {
		return true
	}
	j := 1
	for j < len(rest) && unicode.IsLetter(rest[j]) {
		j++
	}
	return rtfDestinations[string(rest[1:j])]
}

func stripRTF(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	var groups []bool
	skip := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '{':
			groups = append(groups, skip)
			if !skip {
				skip = rtfDestination(runes[i+1:])
			}
		case '}':
			if n := len(groups); n > 0 {
				skip = groups[n-1]
				groups = groups[:n-1]
			}
		case '\r', '\n':
			// Line breaks in RTF source are not text.
		case '\\':
			if i+1 >= len(runes) {
				continue
			}
			next := runes[i+1]
			if next == '\\' || next == '{' || next == '}' {
				if !skip {
					b.WriteRune(next)
				}
				i++
				continue
			}
			if next == '\'' && i+3 < len(runes) {
				if v, err := strconv.ParseUint(string(runes[i+2:i+4]), 16, 8); err == nil {
					if !skip {
						b.WriteRune(rune(v))
					}
					i += 3
					continue
				}
			}
			j := i + 1
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			word := string(runes[i+1 : j])
			for j < len(runes) && (runes[j] == '-' || unicode.IsDigit(runes[j])) {
				j++
			}
			if j < len(runes) && runes[j] == ' ' {
				j++
			}
			if j == i+1 {
				// A control symbol such as \~ or \*.
				j++
			}
			if !skip {
				switch word {
				case "par", "line":
					b.WriteByte('\n')
				case "tab":
					b.WriteByte('\t')
				}
			}
			i = j - 1
		default:
			if !skip {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func stripHTML(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(html.UnescapeString(b.String()))
}
