package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/five82/snapdesk/internal/refresh"
)

// View implements tea.Model.
func (m Model) View() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(m.renderHeader(styles))
	b.WriteString("\n\n")

	b.WriteString(styles.Section.Render("Refreshing"))
	b.WriteString("\n")
	if len(m.active) == 0 {
		b.WriteString(styles.FaintText.Render("  nothing is refreshing"))
		b.WriteString("\n")
	}
	for _, ar := range m.active {
		b.WriteString(m.renderActive(ar, styles))
	}
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("Pending"))
	b.WriteString("\n")
	if len(m.pending) == 0 {
		b.WriteString(styles.FaintText.Render("  no refresh is held back"))
		b.WriteString("\n")
	}
	for i, p := range m.pending {
		b.WriteString(m.renderPending(p, i == m.selected, styles))
	}
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("Recently updated"))
	b.WriteString("\n")
	if len(m.completed) == 0 {
		b.WriteString(styles.FaintText.Render("  none yet"))
		b.WriteString("\n")
	}
	for _, c := range m.completed {
		line := "  " + styles.SuccessText.Render("✓") + " " + styles.Text.Render(c.title)
		if c.version != "" {
			line += " " + styles.MutedText.Render(c.version)
		}
		line += " " + styles.FaintText.Render(humanize.RelTime(c.at, m.now(), "ago", "from now"))
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.InfoText.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderHeader(styles Styles) string {
	summary := fmt.Sprintf("%d refreshing · %d pending", len(m.active), len(m.pending))
	content := styles.Logo.Render("snapdesk") + "  " + styles.MutedText.Render(summary)
	header := styles.Header
	if m.width > 0 {
		header = header.Width(m.width)
	}
	return header.Render(content)
}

func (m Model) renderActive(ar *activeRefresh, styles Styles) string {
	p := ar.progress
	label := styles.Text.Render(ar.visible)
	if !ar.foreground {
		label += " " + styles.FaintText.Render("(background)")
	}
	counts := styles.MutedText.Render(fmt.Sprintf("%d/%d", p.DoneTasks, p.TotalTasks))
	line := "  " + label + "\n  " + m.bar.ViewAs(p.Fraction()) + " " + counts
	if p.Description != "" {
		line += " " + styles.FaintText.Render(truncate(p.Description, 60))
	}
	return line + "\n"
}

func (m Model) renderPending(p *pendingSnap, selected bool, styles Styles) string {
	marker := "  "
	if selected {
		marker = styles.AccentText.Render("> ")
	}

	var when string
	switch {
	case !p.hasRemaining:
		when = styles.MutedText.Render("waiting for the app to close")
	case p.remaining < refresh.AlertBeforeForcedRefresh:
		when = styles.DangerText.Render("forced in " + remainingText(p.remaining))
	case p.remaining < refresh.RemainingTimeBeforeForcedRefresh:
		when = styles.WarningText.Render("forced in " + remainingText(p.remaining))
	default:
		when = styles.MutedText.Render("forced in " + remainingText(p.remaining))
	}

	name := p.title
	if selected {
		name = styles.Selected.Render(name)
	} else {
		name = styles.Text.Render(name)
	}
	line := marker + name + " " + when
	if p.ignored {
		line += " " + styles.FaintText.Render("(silenced)")
	}
	return line + "\n"
}

func remainingText(d time.Duration) string {
	var zero time.Time
	return strings.TrimSpace(humanize.RelTime(zero, zero.Add(d), "", ""))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
