package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// TextFormatter renders `2006-01-02 15:04:05 [LEVEL] [component] message key=value`.
type TextFormatter struct {
	DisableTimestamp bool
	// Color highlights the component with ANSI escapes.
	Color bool
}

// Format renders a single log entry.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteString(" ")
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}
	b.WriteString("[")
	b.WriteString(strings.ToUpper(level))
	b.WriteString("]")

	if component, ok := entry.Data["component"]; ok {
		if f.Color {
			fmt.Fprintf(&b, " [\x1b[36m%v\x1b[0m]", component)
		} else {
			fmt.Fprintf(&b, " [%v]", component)
		}
	}

	b.WriteString(" ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if key != "component" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}
