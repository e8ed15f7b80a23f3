package lists

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	fieldResume = "resume"
	fieldSub    = "sub"
	fieldPlayer = "player"
)

// ErrMalformed marks a line that cannot be parsed as an entry.
var ErrMalformed = errors.New("malformed list entry")

// Entry is one persisted list item.
type Entry struct {
	Tag            string
	Resume         time.Duration
	SubtitleLang   string
	SubtitleSource string
	Player         string
	Payload        string
}

// Skipped describes a line ignored while reading a list.
type Skipped struct {
	Line int
	Text string
	Err  error
}

// ParseLine decodes a single entry line.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	tag, rest, ok := strings.Cut(line, ";")
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing separator", ErrMalformed)
	}
	tag = strings.TrimSpace(tag)
	if !validTag(tag) {
		return Entry{}, fmt.Errorf("%w: invalid tag %q", ErrMalformed, tag)
	}

	e := Entry{Tag: tag}
	seen := make(map[string]bool, 3)
	for {
		token, remainder, more := strings.Cut(rest, ";")
		if !more {
			break
		}
		key, value, isField := strings.Cut(token, ":")
		if !isField || !knownField(key) {
			break
		}
		if seen[key] {
			return Entry{}, fmt.Errorf("%w: duplicate %s field", ErrMalformed, key)
		}
		seen[key] = true
		if err := e.setField(key, value); err != nil {
			return Entry{}, err
		}
		rest = remainder
	}
	if strings.TrimSpace(rest) == "" {
		return Entry{}, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	e.Payload = rest
	return e, nil
}

func (e *Entry) setField(key, value string) error {
	switch key {
	case fieldResume:
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil || ms < 0 {
			return fmt.Errorf("%w: resume %q", ErrMalformed, value)
		}
		e.Resume = time.Duration(ms) * time.Millisecond
	case fieldSub:
		lang, source, _ := strings.Cut(value, ",")
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("%w: subtitle without language", ErrMalformed)
		}
		e.SubtitleLang = strings.TrimSpace(lang)
		e.SubtitleSource = strings.TrimSpace(source)
	case fieldPlayer:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: empty player", ErrMalformed)
		}
		e.Player = strings.TrimSpace(value)
	}
	return nil
}

// String encodes the entry as a list line without the trailing newline.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Tag)
	b.WriteByte(';')
	if e.Resume > 0 {
		fmt.Fprintf(&b, "%s:%d;", fieldResume, e.Resume.Milliseconds())
	}
	if e.SubtitleLang != "" {
		fmt.Fprintf(&b, "%s:%s,%s;", fieldSub, e.SubtitleLang, e.SubtitleSource)
	}
	if e.Player != "" {
		fmt.Fprintf(&b, "%s:%s;", fieldPlayer, e.Player)
	}
	b.WriteString(e.Payload)
	return b.String()
}

// Validate reports whether the entry can be written and read back.
func (e Entry) Validate() error {
	switch {
	case !validTag(e.Tag):
		return fmt.Errorf("%w: invalid tag %q", ErrMalformed, e.Tag)
	case strings.TrimSpace(e.Payload) == "":
		return fmt.Errorf("%w: empty payload", ErrMalformed)
	case strings.ContainsAny(e.Payload, "\r\n"):
		return fmt.Errorf("%w: payload spans lines", ErrMalformed)
	case strings.ContainsAny(e.SubtitleLang+e.SubtitleSource+e.Player, ";\r\n"),
		strings.Contains(e.SubtitleLang, ","):
		return fmt.Errorf("%w: field contains a separator", ErrMalformed)
	}
	return nil
}

// Same reports whether both entries reference the same item.
func (e Entry) Same(other Entry) bool {
	return e.Tag == other.Tag && e.Payload == other.Payload
}

// Read decodes every entry in r. Malformed lines are returned as skipped.
func Read(r io.Reader) ([]Entry, []Skipped, error) {
	var (
		entries []Entry
		skipped []Skipped
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if lineNo == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		entry, err := ParseLine(text)
		if err != nil {
			skipped = append(skipped, Skipped{Line: lineNo, Text: text, Err: err})
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, skipped, err
	}
	return entries, skipped, nil
}

// Write encodes entries after a comment header.
func Write(w io.Writer, header string, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if header != "" {
		for line := range strings.SplitSeq(header, "\n") {
			if _, err := fmt.Fprintf(bw, "# %s\n", line); err != nil {
				return err
			}
		}
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func knownField(key string) bool {
	switch key {
	case fieldResume, fieldSub, fieldPlayer:
		return true
	}
	return false
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
