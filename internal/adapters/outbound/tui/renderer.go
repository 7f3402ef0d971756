package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkraft/archverify/internal/domain"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	info      = lipgloss.Color("#8B949E") // soft blue-gray
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderVerifyReport formats a run for the terminal.
func RenderVerifyReport(r *domain.VerifyReport) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("archverify")
	subtitle := dimStyle.Render("Design Verification")
	verdict := passStyle.Bold(true).Render("PASSED")
	if !r.Passed {
		verdict = failStyle.Bold(true).Render("FAILED")
	}
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + verdict))
	b.WriteString("\n\n")

	// ── Run facts ──
	fmt.Fprintf(&b, "  %s %s\n", padRight("design", 10), dimStyle.Render(r.DesignFile))
	fmt.Fprintf(&b, "  %s %s\n", padRight("roots", 10), dimStyle.Render(strings.Join(r.Roots, ", ")))
	fmt.Fprintf(&b, "  %s %s\n", padRight("classes", 10), dimStyle.Render(fmt.Sprintf(
		"%d found  ·  %d evaluated  ·  %d skipped  ·  %d references",
		r.ClassesFound, r.ClassesEvaluated, r.ClassesSkipped, r.ReferencesChecked)))
	if r.CommitHash != "" {
		fmt.Fprintf(&b, "  %s %s\n", padRight("commit", 10), faintStyle.Render(shortHash(r.CommitHash)))
	}
	fmt.Fprintf(&b, "  %s %s\n", padRight("took", 10), faintStyle.Render(r.Duration.Round(1e6).String()))

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Violations ──
	if len(r.Violations) == 0 {
		b.WriteString("  " + passStyle.Render("No violations found.") + "\n")
	} else {
		b.WriteString("  ")
		b.WriteString(titleStyle.Render("Violations"))
		counts := r.CountByKind()
		for _, k := range domain.AllViolationKinds {
			if counts[k] == 0 {
				continue
			}
			b.WriteString("  ")
			b.WriteString(kindStyle(k).Render(fmt.Sprintf("%d %s", counts[k], k)))
		}
		b.WriteString("\n\n")

		for _, v := range r.Violations {
			renderViolation(&b, v)
		}
	}

	if len(r.DeletedFiles) > 0 {
		b.WriteString("\n  " + titleStyle.Render("Deleted") + "\n")
		for _, f := range r.DeletedFiles {
			b.WriteString("    " + skipStyle.Render(shortenPath(f)) + "\n")
		}
	}

	b.WriteString("\n")
	return b.String()
}

func renderViolation(b *strings.Builder, v *domain.Violation) {
	tag := kindTag(v.Kind)
	if v.File != "" {
		fmt.Fprintf(b, "    %s %s\n", tag, fileStyle.Render(shortenPath(v.File)))
	} else {
		fmt.Fprintf(b, "    %s\n", tag)
	}
	for _, line := range strings.Split(v.Message, "\n") {
		fmt.Fprintf(b, "         %s\n", dimStyle.Render(line))
	}
}

func kindTag(k domain.ViolationKind) string {
	switch k {
	case domain.KindUnusedPackage, domain.KindUnusedDependency:
		return warnTagStyle.Render("unused")
	case domain.KindStructural:
		return infoTagStyle.Render("class ")
	default:
		return errorTagStyle.Render("error ")
	}
}

func kindStyle(k domain.ViolationKind) lipgloss.Style {
	switch k {
	case domain.KindUnusedPackage, domain.KindUnusedDependency:
		return warnTagStyle
	case domain.KindStructural:
		return infoTagStyle
	default:
		return errorTagStyle
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// shortenPath keeps archive entries readable: the archive base name plus
// the entry, or the last three segments of a file path.
func shortenPath(path string) string {
	if archive, entry, ok := strings.Cut(path, "!/"); ok {
		return filepath.Base(archive) + "!/" + entry
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := shortHash(e.CommitHash)
		if hash == "" {
			hash = "·······"
		}
		date := e.Timestamp
		if len(date) > 10 {
			date = date[:10]
		}

		result := passStyle.Render("pass")
		if !e.Passed {
			result = failStyle.Render("fail")
		}

		total := 0
		for _, n := range e.Violations {
			total += n
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(date),
			faintStyle.Render(hash),
			result,
			dimStyle.Render(fmt.Sprintf("%d classes  %d violations", e.Classes, total)),
		)

		if i > 0 && entries[i-1].Passed != e.Passed {
			if e.Passed {
				line += "  " + passStyle.Render("↑ fixed")
			} else {
				line += "  " + failStyle.Render("↓ broke")
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
