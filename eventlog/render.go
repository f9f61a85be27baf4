package eventlog

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const timeLayout = "Jan 02 15:04"

type column struct {
	title string
	width int
	value func(Event) string
}

var (
	colDate    = column{"Date", 12, func(e Event) string { return e.Time.Format(timeLayout) }}
	colScope   = column{"Jurisdiction", 18, func(e Event) string { return e.Scope }}
	colAccount = column{"Account", 18, func(e Event) string { return e.Account }}
	colCode    = column{"Code", 18, func(e Event) string { return e.Code }}
	colDesc    = column{"Description", 0, func(e Event) string { return e.Description }}
)

// Render formats the retained events as a fixed-width table, most recent
// first. A banner is prepended once older events have been evicted.
func (l *Log) Render() string {
	events := l.Events()
	banner := ""
	if l.Truncated() {
		banner = fmt.Sprintf("(Displaying last %d events.)", len(events))
	}
	return RenderEvents(events, banner)
}

// RenderEvents formats events as a fixed-width table. The jurisdiction
// column is shown only when at least one event carries a scope.
func RenderEvents(events []Event, banner string) string {
	cols := []column{colDate, colAccount, colCode, colDesc}
	for _, e := range events {
		if e.Scope != "" {
			cols = []column{colDate, colScope, colAccount, colCode, colDesc}
			break
		}
	}

	var sb strings.Builder
	if banner != "" {
		sb.WriteString(banner)
		sb.WriteByte('\n')
	}
	writeRow(&sb, cols, func(c column) string { return c.title })
	for _, e := range events {
		writeRow(&sb, cols, func(c column) string { return c.value(e) })
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, cols []column, cell func(column) string) {
	for i, c := range cols {
		if i > 0 {
			sb.WriteString("  ")
		}
		text := cell(c)
		if c.width == 0 {
			sb.WriteString(text)
			continue
		}
		sb.WriteString(runewidth.FillRight(runewidth.Truncate(text, c.width, "…"), c.width))
	}
	sb.WriteByte('\n')
}
