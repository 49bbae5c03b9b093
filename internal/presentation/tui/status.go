package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/aretw0/weft/pkg/domain"
)

// StatusLine formats one status entry as a colored terminal line.
func StatusLine(p termenv.Profile, st domain.StatusEntry) string {
	key := domain.OutputKey(st.Component, st.Output)
	took := st.Duration.Round(time.Microsecond)
	if st.Status == domain.StatusError {
		mark := p.String("✗").Foreground(p.Color("#ef4444")).Bold()
		return fmt.Sprintf("%s %s (%s): %s", mark, key, took, st.Error)
	}
	mark := p.String("✓").Foreground(p.Color("#22c55e")).Bold()
	return fmt.Sprintf("%s %s (%s)", mark, key, took)
}

// Report renders a run result as markdown: a status table, the terminal
// outputs and the component logs.
func Report(name string, res *domain.RunResult) string {
	var sb strings.Builder
	title := "Run"
	if name != "" {
		title = name
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Run `%s` finished in %s.\n\n", res.RunID, res.Duration.Round(time.Millisecond)))

	sb.WriteString("## Outputs\n\n")
	if len(res.Outputs) == 0 {
		sb.WriteString("_none_\n\n")
	}
	for _, key := range res.OutputKeys() {
		sb.WriteString(fmt.Sprintf("### `%s`\n\n", key))
		sb.WriteString(fence(display(res.Outputs[key])))
	}

	sb.WriteString("## Status\n\n")
	sb.WriteString("| Output | Status | Duration |\n|---|---|---|\n")
	for _, st := range res.Statuses {
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n",
			domain.OutputKey(st.Component, st.Output), st.Status, st.Duration.Round(time.Microsecond)))
	}
	sb.WriteString("\n")

	if len(res.Logs) > 0 {
		sb.WriteString("## Logs\n\n")
		logs := append([]domain.LogEvent(nil), res.Logs...)
		sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.Before(logs[j].Timestamp) })
		for _, l := range logs {
			sb.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", l.Log.Name, l.Log.Type, display(l.Log.Message)))
		}
	}
	return sb.String()
}

func display(v any) string {
	if s, ok := domain.AsText(v); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func fence(s string) string {
	return "```\n" + strings.TrimRight(s, "\n") + "\n```\n\n"
}
