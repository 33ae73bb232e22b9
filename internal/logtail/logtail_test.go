package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "snapdesk.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "zero", maxLines: 0, expected: nil},
		{name: "negative", maxLines: -1, expected: nil},
		{name: "partial", maxLines: 5, expected: expectedAll[5:]},
		{name: "exactly all", maxLines: 10, expected: expectedAll},
		{name: "more than exists", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func plainPalette() Palette {
	return Palette{
		Timestamp: lipgloss.NewStyle(),
		Component: lipgloss.NewStyle(),
		Fields:    lipgloss.NewStyle(),
	}
}

func TestColorizeKeepsText(t *testing.T) {
	p := plainPalette()
	tests := []string{
		"",
		"   ",
		"not a log line",
		"2026-10-19 12:00:00 [INFO] [refresh] refresh started snap=firefox",
		"2026-10-19 12:00:00 [WARN] notice stream failed error=EOF attempt=2",
		"2026-10-19 12:00:00 [DEBUG] [changes] poll",
	}
	for _, line := range tests {
		if got := p.Colorize(line); got != line {
			t.Errorf("Colorize(%q) = %q", line, got)
		}
	}
}

func TestColorizeLines(t *testing.T) {
	p := plainPalette()
	in := []string{"a", "2026-10-19 12:00:00 [ERROR] boom"}
	got := p.ColorizeLines(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("ColorizeLines() = %v", got)
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		in      string
		message string
		fields  string
	}{
		{"refresh started snap=firefox", "refresh started", " snap=firefox"},
		{"no fields here", "no fields here", ""},
		{"ratio 1=2 change_id=7", "ratio 1=2", " change_id=7"},
	}
	for _, tt := range tests {
		message, fields := splitFields(tt.in)
		if message != tt.message || fields != tt.fields {
			t.Errorf("splitFields(%q) = %q, %q; want %q, %q", tt.in, message, fields, tt.message, tt.fields)
		}
	}
}
