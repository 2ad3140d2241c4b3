// internal/tui/render.go
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/storyqa/internal/generation"
)

var (
	// HeaderStyle marks section titles such as "Generated Story".
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	// CaptionStyle is used for secondary lines like word counts.
	CaptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	// ErrorStyle highlights failures in per-language output.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// ComparisonMarkdown builds the model comparison table as Markdown.
func ComparisonMarkdown(profiles []generation.ModelProfile) string {
	var b strings.Builder
	b.WriteString("## Model Comparison\n\n")
	b.WriteString("| Model | Architecture | Parameters | Training Data | Strengths | Best Use Case | Speed | Memory |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, p := range profiles {
		info := p.Info
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			info.DisplayName, info.Architecture, info.Parameters, info.TrainingData,
			info.Strengths, info.BestUseCase, info.Speed, info.Memory)
	}
	return b.String()
}

// ModelDetailsMarkdown describes a single profile's features and limitations.
func ModelDetailsMarkdown(p generation.ModelProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (`%s`)\n\n%s\n\n", p.Info.DisplayName, p.Name, p.Info.Summary)
	fmt.Fprintf(&b, "Decoding: %s\n\n", p.Decoding)
	if len(p.Info.Features) > 0 {
		b.WriteString("**Features**\n\n")
		for _, f := range p.Info.Features {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	if len(p.Info.Limitations) > 0 {
		b.WriteString("**Limitations**\n\n")
		for _, l := range p.Info.Limitations {
			fmt.Fprintf(&b, "- %s\n", l)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderComparison renders the comparison table for the terminal, returning
// the plain Markdown if glamour cannot render it.
func RenderComparison(profiles []generation.ModelProfile, width int) string {
	return RenderMarkdown(ComparisonMarkdown(profiles), width)
}

// RenderMarkdown converts Markdown to terminal output wrapped at width.
func RenderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
