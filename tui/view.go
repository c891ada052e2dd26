package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/pebblekit/pebble2/hexdump"
	"github.com/pebblekit/pebble2/rpc"
)

const (
	colEndpoint = 10
	colTime     = 12
)

func (m Model) renderList() string {
	innerWidth := max(m.width-4, 20)
	maxRows := max(m.height-3, 1)

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(innerWidth)

	dataRows := max(maxRows-1, 1)
	start := 0
	if len(m.events) > dataRows {
		start = max(m.cursor-dataRows/2, 0)
		if start+dataRows > len(m.events) {
			start = len(m.events) - dataRows
		}
	}
	end := min(start+dataRows, len(m.events))

	header := fmt.Sprintf("  %-*s %-*s %s", colEndpoint, "Endpoint", colTime, "Time", "Fields")
	rows := []string{lipgloss.NewStyle().Bold(true).Render(header)}

	for i := start; i < end; i++ {
		ev := m.events[i]
		marker := "  "
		if i == m.cursor {
			marker = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("> ")
		}
		ts := ""
		if ev.At != nil {
			ts = ev.At.AsTime().Format("15:04:05.000")
		}
		summary := summariseFields(ev)
		line := fmt.Sprintf("%s%-*s %-*s %s", marker, colEndpoint, fmt.Sprintf("0x%04x", ev.Endpoint), colTime, ts, summary)
		rows = append(rows, ansi.Cut(line, 0, innerWidth-2))
	}

	title := fmt.Sprintf(" pebble2 (%d events) ", len(m.events))
	if m.follow {
		title += "[follow] "
	}

	box := border.Render(strings.Join(rows, "\n"))
	lines := strings.Split(box, "\n")
	if len(lines) > 0 {
		borderFg := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		titleStyle := lipgloss.NewStyle().Bold(true)
		dashes := max(innerWidth-len([]rune(title)), 0)
		lines[0] = borderFg.Render("╭") + titleStyle.Render(title) + borderFg.Render(strings.Repeat("─", dashes)+"╮")
		box = strings.Join(lines, "\n")
	}
	return box + "\n" + helpLine(m.view)
}

func summariseFields(ev *rpc.WatchEvent) string {
	if ev.Fields == nil {
		return ""
	}
	m := ev.Fields.AsMap()
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderInspector() string {
	if m.cursor >= len(m.events) {
		return "no event selected"
	}
	ev := m.events[m.cursor]

	var b strings.Builder
	fmt.Fprintf(&b, "endpoint 0x%04x\n", ev.Endpoint)
	if ev.At != nil {
		fmt.Fprintf(&b, "at %s\n\n", ev.At.AsTime().Format("2006-01-02T15:04:05.000Z07:00"))
	}
	if ev.Fields != nil {
		b.WriteString(hexdump.Packet(ev.Fields.AsMap()))
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20)).
		Render(b.String())
	return border + "\n" + helpLine(m.view)
}

func helpLine(v viewMode) string {
	style := lipgloss.NewStyle().Faint(true)
	if v == viewInspect {
		return style.Render(" q: back  ctrl+c: quit")
	}
	return style.Render(" j/k: move  g/G: top/bottom  enter: inspect  q/ctrl+c: quit")
}
