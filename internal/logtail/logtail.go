package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Read returns at most maxLines from the end of the file at path.
// maxLines <= 0 returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Field is one key=value pair of a log line.
type Field struct {
	Key   string
	Value string
}

// Entry is a parsed logrus text line.
type Entry struct {
	Time    string
	Level   string
	Message string
	Fields  []Field
}

// Parse splits a logrus text-formatter line into its parts. ok is false for
// lines that are not key=value formatted.
func Parse(line string) (Entry, bool) {
	var e Entry
	rest := strings.TrimSpace(line)
	if rest == "" {
		return e, false
	}
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \t\"") {
			return Entry{}, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return Entry{}, false
			}
			value, _ = strconv.Unquote(quoted)
			rest = rest[len(quoted):]
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		rest = strings.TrimLeft(rest, " ")

		switch key {
		case "time":
			e.Time = value
		case "level":
			e.Level = value
		case "msg":
			e.Message = value
		default:
			e.Fields = append(e.Fields, Field{Key: key, Value: value})
		}
	}
	return e, e.Level != ""
}

// AtLeast reports whether the entry is at or above threshold. Unparseable levels
// always pass.
func (e Entry) AtLeast(threshold logrus.Level) bool {
	level, err := logrus.ParseLevel(e.Level)
	if err != nil {
		return true
	}
	// logrus orders levels from panic (0) to trace (6).
	return level <= threshold
}

// Styles colour the parts of a log line.
type Styles struct {
	Time    lipgloss.Style
	Levels  map[string]lipgloss.Style
	Message lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
}

// ColorizeLine renders a log line with styles. Lines that do not parse are
// returned unchanged.
func ColorizeLine(line string, s Styles) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}
	var b strings.Builder
	if e.Time != "" {
		ts := e.Time
		if len(ts) >= 19 {
			ts = strings.Replace(ts[:19], "T", " ", 1)
		}
		b.WriteString(s.Time.Render(ts))
		b.WriteByte(' ')
	}
	level := strings.ToUpper(e.Level)
	if len(level) > 4 {
		level = level[:4]
	}
	b.WriteString(s.Levels[strings.ToLower(e.Level)].Render(fmt.Sprintf("%-4s", level)))
	b.WriteByte(' ')
	b.WriteString(s.Message.Render(e.Message))
	for _, f := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(s.Key.Render(f.Key + "="))
		b.WriteString(s.Value.Render(f.Value))
	}
	return b.String()
}

// ColorizeLines renders lines at or above threshold.
func ColorizeLines(lines []string, threshold logrus.Level, s Styles) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if e, ok := Parse(line); ok && !e.AtLeast(threshold) {
			continue
		}
		out = append(out, ColorizeLine(line, s))
	}
	return out
}
