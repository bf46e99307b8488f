package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/casestudy-ai/cli/internal/apierr"
	"github.com/casestudy-ai/cli/internal/render"
	"github.com/casestudy-ai/cli/internal/request"
)

// View renders the screen
func (m Model) View() string {
	sections := []string{m.headerView()}

	if m.showUpload {
		sections = append(sections, m.uploadView())
	}

	sections = append(sections, m.formView())

	switch m.query.Status() {
	case request.Loading:
		sections = append(sections, m.spinner.View()+" "+render.QueryingLabel)
	case request.Error:
		sections = append(sections, alertView("ERROR", apierr.Message(m.query.Err())))
	case request.Success:
		sections = append(sections, m.answerView())
	default:
		sections = append(sections, emptyView())
	}

	sections = append(sections, m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	title := titleStyle.Render("CaseStudy ") + accentStyle.Render("AI")
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.healthBadge())
	return lipgloss.JoinVertical(lipgloss.Left, header, mutedStyle.Render(render.Tagline), "")
}

func (m Model) healthBadge() string {
	switch m.health.Status() {
	case request.Loading:
		return mutedStyle.Render("○ checking backend...")
	case request.Error:
		return errorStyle.Render("● offline") + mutedStyle.Render(" "+apierr.Message(m.health.Err()))
	case request.Success:
		status, _ := m.health.Data()
		if !status.Healthy() {
			return warnStyle.Render("● " + status.Status)
		}
		parts := []string{healthyStyle.Render("● healthy")}
		if status.FileCount != nil {
			parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d files", *status.FileCount)))
		}
		if status.StoreName != "" {
			parts = append(parts, mutedStyle.Render(status.StoreName))
		}
		return strings.Join(parts, mutedStyle.Render(" · "))
	default:
		return mutedStyle.Render("○ status unknown (ctrl+r)")
	}
}

func (m Model) formView() string {
	lines := []string{m.input.View()}
	if m.formErr != "" {
		lines = append(lines, errorStyle.Render(m.formErr))
	}
	if !m.query.Loading() {
		lines = append(lines, "", mutedStyle.Render("[ EXAMPLES ]"))
		for i, example := range render.Examples {
			line := render.Index(i) + " " + example
			if i == m.exampleIdx {
				lines = append(lines, accentStyle.Render(line))
			} else {
				lines = append(lines, subtleStyle.Render(line))
			}
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m Model) answerView() string {
	head := mutedStyle.Render("[ OUTPUT ]") + " " + titleStyle.Render("Sales Pitch")
	if m.copySupported {
		if m.copy.Copied {
			head += "  " + accentStyle.Render("Copied!")
		} else {
			head += "  " + mutedStyle.Render("ctrl+y COPY")
		}
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, head, "", m.viewport.View()))
}

// answerContent is the scrollable answer text followed by its sources
func (m Model) answerContent() string {
	answer, ok := m.query.Data()
	if !ok || answer == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(render.Terminal(answer.Text, m.viewport.Width))
	if len(answer.Citations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render(render.SourcesLabel(len(answer.Citations))))
		for i, c := range answer.Citations {
			b.WriteString("\n")
			b.WriteString(accentStyle.Render(render.Index(i)))
			b.WriteString(" ")
			b.WriteString(subtleStyle.Render(render.Citation(c)))
		}
	}
	return b.String()
}

func (m Model) uploadView() string {
	lines := []string{
		mutedStyle.Render("[ UPLOAD ]"),
		m.pathInput.View(),
		mutedStyle.Render(fmt.Sprintf("Supported: %s • Max: %dMB",
			strings.Join(m.files.Extensions(), ", "), m.files.MaxMB())),
	}
	if m.uploadProgress != "" {
		lines = append(lines, subtleStyle.Render("> "+m.uploadProgress))
	}
	if m.upload.Loading() {
		lines = append(lines, m.spinner.View()+" "+render.UploadingLabel)
	}
	if m.upload.Status() == request.Error {
		lines = append(lines, alertView("UPLOAD ERROR", apierr.Message(m.upload.Err())))
	}
	if m.uploadNotice != "" {
		lines = append(lines, noticeStyle.Render(m.uploadNotice))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func alertView(title, message string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		mutedStyle.Render(title),
		"> "+message,
	)
	return alertStyle.Render(body) + mutedStyle.Render("  esc to dismiss")
}

func emptyView() string {
	lines := []string{"", subtleStyle.Render(render.EmptyTitle), "", mutedStyle.Render("Examples:")}
	for _, example := range render.Examples {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf(`• "%s"`, example)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) helpView() string {
	keys := "enter ask • tab example • ctrl+u upload • ctrl+r health • esc dismiss • ctrl+c quit"
	if m.showUpload {
		keys = "enter upload • ctrl+u close • esc close • ctrl+c quit"
	}
	return "\n" + mutedStyle.Render(keys)
}
