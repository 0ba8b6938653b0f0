package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pigdbc/dat-conditional-updater/internal/engine"
)

const (
	title     = "DAT Conditional Updater (UTF-16BE)"
	ruleWidth = 64
)

// Render returns the full audit document.
func (l *Log) Render(hits []engine.RuleHits) string {
	var sb strings.Builder
	l.renderPreamble(&sb)
	sb.WriteString(strings.Repeat("─", ruleWidth))
	sb.WriteString("\n")
	for _, e := range l.entries {
		renderEntry(&sb, e)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", ruleWidth))
	sb.WriteString("\n")
	renderSummary(&sb, l.Summary(hits))
	return sb.String()
}

func (l *Log) renderPreamble(sb *strings.Builder) {
	p := l.pre
	sb.WriteString("╔" + strings.Repeat("═", ruleWidth-2) + "╗\n")
	fmt.Fprintf(sb, "║  %-*s║\n", ruleWidth-4, title)
	sb.WriteString("╚" + strings.Repeat("═", ruleWidth-2) + "╝\n")
	fmt.Fprintf(sb, "Run:    %s (%s)\n", p.RunID, p.Started.Format(time.RFC3339))
	fmt.Fprintf(sb, "Config: %s\n", orDash(p.ConfigPath))
	fmt.Fprintf(sb, "Input:  %s\n", orDash(p.InputPath))
	if p.DryRun {
		sb.WriteString("Output: (dry run, not written)\n")
	} else {
		fmt.Fprintf(sb, "Output: %s\n", orDash(p.OutputPath))
	}
	fmt.Fprintf(sb, "RecordSize: %d bytes (header marker 0x%02X, data marker 0x%02X)\n",
		p.Settings.RecordSize, p.Settings.HeaderMarker, p.Settings.DataMarker)
	sb.WriteString("\n")

	if p.InputSize >= 0 {
		fmt.Fprintf(sb, "File size: %d bytes (%s), ", p.InputSize, humanize.Bytes(uint64(p.InputSize)))
	}
	fmt.Fprintf(sb, "Records: %d, Rules: %d\n", len(l.entries), len(p.Rules))
	sb.WriteString("\n")

	for _, r := range p.Rules {
		fmt.Fprintf(sb, "  %s: %s\n", r.Name, r.Describe())
	}
	for _, ce := range p.ConfigErrors {
		fmt.Fprintf(sb, "  Config error (rule excluded): %v\n", ce)
	}
	sb.WriteString("\n")
}

func renderEntry(sb *strings.Builder, e Entry) {
	num := e.Index + 1
	switch e.Status {
	case StatusHeader:
		fmt.Fprintf(sb, "[#%4d] HEADER - skipped\n", num)
	case StatusUnknown:
		fmt.Fprintf(sb, "[#%4d] UNKNOWN marker 0x%02X - skipped\n", num, e.Marker)
	case StatusUnmodified:
		fmt.Fprintf(sb, "[#%4d] UNMODIFIED\n", num)
	case StatusUpdated:
		fmt.Fprintf(sb, "[#%4d] UPDATED\n", num)
		for _, c := range e.Changes {
			sb.WriteString(FormatChange(c))
			sb.WriteString("\n")
		}
	}
}

// FormatChange renders one change line of an UPDATED entry.
func FormatChange(c engine.Change) string {
	line := fmt.Sprintf("  %s: Byte%d '%s' → '%s'", c.Rule, c.Offset, c.Old, c.New)
	if c.Overwrites != "" {
		line += fmt.Sprintf(" (overwrites %s)", c.Overwrites)
	}
	if c.Lossy {
		line += " [warning: old value not decodable]"
	}
	return line
}

func renderSummary(sb *strings.Builder, s Summary) {
	fmt.Fprintf(sb, "Summary: %s\n", s)
	fmt.Fprintf(sb, "  Records: %d total, %d header, %d unknown\n", s.Records, s.Headers, s.Unknown)
	fmt.Fprintf(sb, "  Changes: %d", s.Changes)
	if s.DecodeWarnings > 0 {
		fmt.Fprintf(sb, " (%d decode warnings)", s.DecodeWarnings)
	}
	sb.WriteString("\n")
	for _, h := range s.Hits {
		fmt.Fprintf(sb, "  %s hits: %d\n", h.Rule, h.Hits)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
