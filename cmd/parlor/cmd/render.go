package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"parlor/src/personality"
	"parlor/src/session"
)

var (
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

// renderer prints chat messages as "<icon> <Speaker>: <text>"
type renderer struct {
	out      io.Writer
	registry *personality.Registry
}

func (r renderer) label(m session.Message) string {
	if m.Persona != "" {
		if p, ok := r.registry.Lookup(m.Persona); ok {
			style := lipgloss.NewStyle().Bold(true)
			if p.GetColor() != "" {
				style = style.Foreground(lipgloss.Color(p.GetColor()))
			}
			label := style.Render(m.Speaker + ":")
			if p.GetIcon() != "" {
				label = p.GetIcon() + " " + label
			}
			return label
		}
	}
	switch m.Speaker {
	case session.UserSpeaker:
		return userStyle.Render(m.Speaker + ":")
	default:
		return assistantStyle.Render(m.Speaker + ":")
	}
}

func (r renderer) message(m session.Message) {
	fmt.Fprintf(r.out, "%s %s\n", r.label(m), m.Text)
}

func (r renderer) messages(ms []session.Message) {
	for _, m := range ms {
		r.message(m)
	}
}

func (r renderer) failure(text string) {
	fmt.Fprintf(r.out, "%s %s\n", assistantStyle.Render(session.AssistantSpeaker+":"), errorStyle.Render(text))
}
