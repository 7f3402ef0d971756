package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkraft/archverify/internal/domain"
	"github.com/openkraft/archverify/internal/domain/registry"
)

const graphMaxRows = 40

// RenderDesign visualizes a design: a summary header, one row per package
// with its fan-in and fan-out, the declared edges, and any cycles.
func RenderDesign(reg *registry.Registry, designFile string) string {
	pkgs := reg.Packages()
	if len(pkgs) <= 1 {
		return "\n  " + dimStyle.Render("The design declares no packages.") + "\n\n"
	}

	var b strings.Builder
	cycles := reg.Cycles()

	// ── Header box ──
	title := headerStyle.Render("Design")
	fileLine := lipgloss.NewStyle().Bold(true).Foreground(fg).Render(designFile)
	mode := "ordered"
	if reg.Circular() {
		mode = "circular"
	}
	stats := dimStyle.Render(fmt.Sprintf("%d packages  ·  %d edges  ·  %s  ·  ",
		len(pkgs), reg.EdgeCount(), mode))
	cycleLabel := passStyle.Render(fmt.Sprintf("%d cycles", len(cycles)))
	if len(cycles) > 0 {
		cycleLabel = warnStyle.Render(fmt.Sprintf("%d cycles", len(cycles)))
	}
	b.WriteString(boxStyle.Render(title + "\n\n" + fileLine + "\n" + stats + cycleLabel))
	b.WriteString("\n\n")

	renderPackageTable(&b, pkgs)
	renderEdges(&b, pkgs)
	renderCyclesSection(&b, cycles)

	b.WriteString("\n")
	return b.String()
}

func renderPackageTable(b *strings.Builder, pkgs []*domain.LogicalPackage) {
	fanIn := make(map[string]int)
	for _, p := range pkgs {
		for _, d := range p.Depends {
			fanIn[d]++
		}
	}

	hdr := fmt.Sprintf("  %-16s %-32s %3s %3s  %s", "Package", "Namespace", "Ca", "Ce", "Flags")
	b.WriteString(titleStyle.Render(hdr) + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 68)) + "\n")

	shown := min(len(pkgs), graphMaxRows)
	for _, p := range pkgs[:shown] {
		name := truncateOrPad(p.Name, 16)
		ns := p.Namespace
		if p.IncludeSubpackages {
			ns += ".**"
		}
		style := dimStyle
		if p.Builtin {
			style = skipStyle
		}
		fmt.Fprintf(b, "  %s %s %3d %3d  %s\n",
			titleStyle.Render(name), style.Render(truncateOrPad(ns, 32)),
			fanIn[p.Name], len(p.Depends), flagLabel(p))
	}
	if remaining := len(pkgs) - shown; remaining > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  (%d more packages)\n", remaining)))
	}
	b.WriteString("\n")
}

func flagLabel(p *domain.LogicalPackage) string {
	var parts []string
	if p.Builtin {
		parts = append(parts, skipStyle.Render("builtin"))
	}
	if !p.NeedDeclarations {
		parts = append(parts, passStyle.Render("open"))
	}
	if !p.NeedDepends {
		parts = append(parts, dimStyle.Render("unchecked"))
	}
	if len(parts) == 0 {
		return dimStyle.Render("—")
	}
	return strings.Join(parts, " ")
}

func renderEdges(b *strings.Builder, pkgs []*domain.LogicalPackage) {
	b.WriteString("  " + titleStyle.Render("Dependencies") + "\n")
	found := false
	for _, p := range pkgs {
		if len(p.Depends) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(b, "    %s %s %s\n", p.Name, faintStyle.Render("→"), dimStyle.Render(strings.Join(p.Depends, ", ")))
	}
	if !found {
		b.WriteString("    " + dimStyle.Render("(none)") + "\n")
	}
	b.WriteString("\n")
}

func renderCyclesSection(b *strings.Builder, cycles [][]string) {
	b.WriteString("  " + titleStyle.Render("Cycles") + "\n")
	if len(cycles) == 0 {
		b.WriteString("    " + passStyle.Render("(none)") + "\n")
		return
	}
	for _, cycle := range cycles {
		// Show as a → b → c → a
		parts := make([]string, len(cycle), len(cycle)+1)
		copy(parts, cycle)
		parts = append(parts, cycle[0])
		b.WriteString("    " + warnStyle.Render(strings.Join(parts, " → ")) + "\n")
	}
}

// RenderResolution shows which package a namespace resolves to.
func RenderResolution(namespace string, p *domain.LogicalPackage, ok bool) string {
	if !ok {
		return fmt.Sprintf("  %s %s\n", failStyle.Render("✘"),
			dimStyle.Render(fmt.Sprintf("%s is not covered by any declared package", namespace)))
	}
	how := "exact"
	if p.Namespace != namespace {
		how = "subpackage of " + p.Namespace
	}
	return fmt.Sprintf("  %s %s %s %s  %s\n", passStyle.Render("●"), namespace,
		faintStyle.Render("→"), titleStyle.Render(p.Name), dimStyle.Render("("+how+")"))
}

func truncateOrPad(s string, width int) string {
	if len(s) > width {
		return s[:width-1] + "…"
	}
	return padRight(s, width)
}
