package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	boldStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Terminal renders answer text for a terminal of the given width.
// Headers and **bold** spans are highlighted, bullets are normalised and
// long lines wrap. A width below 1 disables wrapping.
func Terminal(text string, width int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	formatted := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "### "):
			formatted = append(formatted, headerStyle.Render(strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			formatted = append(formatted, headerStyle.Render(strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			formatted = append(formatted, headerStyle.Render(strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			item := trimmed[2:]
			formatted = append(formatted, "  "+bulletStyle.Render("•")+" "+highlightBold(item))
		default:
			formatted = append(formatted, highlightBold(line))
		}
	}

	out := strings.Join(formatted, "\n")
	if width < 1 {
		return out
	}
	return lipgloss.NewStyle().Width(width).Render(out)
}

// highlightBold styles **bold** pairs; an unmatched marker runs to the end
// of the line
func highlightBold(text string) string {
	var result strings.Builder
	var span strings.Builder
	boldOpen := false

	for i := 0; i < len(text); i++ {
		if i < len(text)-1 && text[i] == '*' && text[i+1] == '*' {
			if boldOpen {
				result.WriteString(boldStyle.Render(span.String()))
				span.Reset()
			}
			boldOpen = !boldOpen
			i++
			continue
		}
		if boldOpen {
			span.WriteByte(text[i])
		} else {
			result.WriteByte(text[i])
		}
	}

	if boldOpen {
		result.WriteString(boldStyle.Render(span.String()))
	}
	return result.String()
}
