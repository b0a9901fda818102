package ui

import (
	"fmt"
	"strings"

	"github.com/monopub/engine/internal/model"
)

// RenderReport renders a PublishReport as a human-readable summary table
// for terminal output.
func RenderReport(rpt *model.PublishReport) string {
	var b strings.Builder

	icon := StatusIcon(rpt.Success)
	b.WriteString(fmt.Sprintf("%s %s\n\n", icon, BoldPrimaryStyle.Render(rpt.Summary)))

	for _, name := range rpt.Published {
		b.WriteString(fmt.Sprintf("  %s %s\n", SuccessStyle.Render("✓"), name))
	}
	for _, name := range rpt.Failed {
		b.WriteString(fmt.Sprintf("  %s %s\n", ErrorStyle.Render("✗"), name))
	}
	for _, name := range rpt.Skipped {
		b.WriteString(fmt.Sprintf("  %s %s\n", MutedStyle.Render("-"), MutedStyle.Render(name)))
	}

	if len(rpt.Warnings) > 0 {
		b.WriteString("\n" + WarningStyle.Render("warnings:") + "\n")
		for _, w := range rpt.Warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", Bullet(), w))
		}
	}

	if len(rpt.Errors) > 0 {
		b.WriteString("\n" + ErrorStyle.Render("errors:") + "\n")
		for _, e := range rpt.Errors {
			b.WriteString(fmt.Sprintf("  %s %s\n", Bullet(), e))
		}
	}

	b.WriteString("\n" + HintStyle.Render(rpt.Duration.String()) + "\n")
	return b.String()
}
