package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/seer/internal/api"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal closes.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// cancelModal asks before cancelling a job.
type cancelModal struct {
	job    api.Job
	cancel func(api.ID) tea.Cmd
}

func (c cancelModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(k, keys.Confirm):
		return c, c.cancel(c.job.ID), true
	case key.Matches(k, keys.Deny), key.Matches(k, keys.Quit):
		return c, nil, true
	}
	return c, nil, false
}

func (c cancelModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := fmt.Sprintf("%s\n\n%s %s\n\n%s",
		styles.WarningText.Bold(true).Render("Cancel job?"),
		styles.Text.Render(c.job.ExpertSystem.Label()),
		styles.MutedText.Render("#"+c.job.ID.String()),
		styles.FaintText.Render("y confirm  ·  n keep"),
	)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Warning)).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
