// Package logtail reads the end of the snapdesk log file and highlights the
// lines written by the logging package's text formatter.
package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
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
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Palette styles the parts of a log line.
type Palette struct {
	Timestamp lipgloss.Style
	Component lipgloss.Style
	Fields    lipgloss.Style
	Levels    map[string]lipgloss.Style
}

// DefaultPalette suits dark terminals.
func DefaultPalette() Palette {
	return Palette{
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Component: lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Fields:    lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Levels: map[string]lipgloss.Style{
			"TRACE": lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
			"FATAL": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
			"PANIC": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

var (
	linePattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) \[([A-Z]+)\](?: \[([^\]]+)\])? (.*)$`)
	fieldPattern = regexp.MustCompile(`(?:^| )[a-z_]+=`)
)

// Colorize highlights one line. Lines that do not look like formatter output
// are returned unchanged.
func (p Palette) Colorize(line string) string {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	timestamp, level, component, rest := m[1], m[2], m[3], m[4]

	var b strings.Builder
	b.WriteString(p.Timestamp.Render(timestamp))
	b.WriteString(" ")
	levelStyle, ok := p.Levels[level]
	if !ok {
		levelStyle = lipgloss.NewStyle()
	}
	b.WriteString(levelStyle.Render("[" + level + "]"))
	if component != "" {
		b.WriteString(" ")
		b.WriteString(p.Component.Render("[" + component + "]"))
	}
	b.WriteString(" ")

	message, fields := splitFields(rest)
	b.WriteString(message)
	if fields != "" {
		b.WriteString(p.Fields.Render(fields))
	}
	return b.String()
}

// ColorizeLines highlights every line with p.
func (p Palette) ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = p.Colorize(line)
	}
	return out
}

// splitFields separates the message from the trailing key=value pairs.
func splitFields(rest string) (string, string) {
	loc := fieldPattern.FindStringIndex(rest)
	if loc == nil {
		return rest, ""
	}
	return rest[:loc[0]], rest[loc[0]:]
}
