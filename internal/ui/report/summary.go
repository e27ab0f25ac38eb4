// Package report renders the end-of-run terminal summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/phensley/less-scanner/internal/core/app"
	"github.com/phensley/less-scanner/internal/engine/counter"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	countStyle = lipgloss.NewStyle().
			Width(8).
			Align(lipgloss.Right)
)

// Options controls RenderSummary.
type Options struct {
	// Top is the number of keys listed per non-empty section. Zero hides the
	// key listing.
	Top int
	// OutputDir is shown as the report location when set.
	OutputDir string
}

// RenderSummary formats run totals, the top keys of every section and, when
// history is enabled, key churn against the previous run.
func RenderSummary(r *app.Report, opts Options) string {
	var b strings.Builder
	res := r.Result

	b.WriteString(titleStyle.Render("lessscan summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Files: %d  Scanned: %d  Workers: %d  Duration: %s\n",
		res.Files, res.Scanned, res.Workers, res.Duration.Round(time.Millisecond))

	switch {
	case res.Failed > 0:
		b.WriteString(failureStyle.Render(fmt.Sprintf("Failed: %d", res.Failed)))
		b.WriteString("\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "  - %s\n", d.Err)
		}
	case res.Files > 0:
		b.WriteString(successStyle.Render("All files scanned"))
		b.WriteString("\n")
	}
	if len(r.Missing) > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("Missing paths: %d", len(r.Missing))))
		b.WriteString("\n")
		for _, d := range r.Missing {
			fmt.Fprintf(&b, "  - %s\n", d.Path)
		}
	}

	if opts.Top > 0 {
		for _, section := range counter.Sections {
			c := res.Stats.Counter(section)
			if c.Len() == 0 {
				continue
			}
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d keys, %d total)", section, c.Len(), c.Total())))
			b.WriteString("\n")
			entries := c.Sorted()
			if len(entries) > opts.Top {
				entries = entries[:opts.Top]
			}
			for _, e := range entries {
				fmt.Fprintf(&b, "%s  %s\n", countStyle.Render(fmt.Sprint(e.Count)), e.Key)
			}
		}
	}

	if r.Previous != nil {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Since run " + shortID(r.Previous.ID)))
		b.WriteString("\n")
		changed := false
		for _, d := range r.Deltas {
			if d.Added == 0 && d.Removed == 0 {
				continue
			}
			changed = true
			fmt.Fprintf(&b, "  %-15s %+d keys (+%d/-%d)\n", d.Section, d.Delta(), d.Added, d.Removed)
		}
		if !changed {
			b.WriteString("  no key changes\n")
		}
	}

	var footer []string
	if opts.OutputDir != "" {
		footer = append(footer, "reports in "+opts.OutputDir)
	}
	if r.RunID != "" {
		footer = append(footer, "run "+shortID(r.RunID))
	}
	if len(footer) > 0 {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(strings.Join(footer, " | ")))
		b.WriteString("\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
