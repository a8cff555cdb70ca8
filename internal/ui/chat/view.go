// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Onrion/t3-cloneathon/internal/model"
)

// chromeHeight is the vertical space taken by the header, input line,
// and status bar around the message viewport.
const chromeHeight = 5

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting t3chat..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(),
		m.viewport.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// REGIONS
// =============================================================================

func (m Model) renderHeader() string {
	title := "t3chat"
	if m.identity != nil && m.identity.Handle != "" {
		title += " - " + m.identity.Handle
	}
	return m.theme.Header.Width(m.width).Render(title)
}

func (m Model) renderSidebar() string {
	width := m.sidebarWidth()
	height := m.height - chromeHeight
	if height < 1 {
		height = 1
	}

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Chats"))
	b.WriteString("\n")

	for i, th := range m.threads {
		if i >= height-1 {
			break
		}
		label := truncateToWidth(th.Title, width-4)
		if th.ID == m.selected {
			b.WriteString(m.theme.ThreadSelected.Render("* " + label))
		} else {
			b.WriteString(m.theme.ThreadItem.Render("  " + label))
		}
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(width).
		Height(height).
		Render(b.String())
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.sending:
		left = m.spinner.View() + m.theme.ThinkingText.Render(" thinking...")
	case m.statusMsg != "":
		left = m.theme.StatusError.Render(m.statusMsg)
	default:
		left = m.theme.StatusOK.Render("ready")
	}

	var help []string
	for _, b := range m.keyMap.ShortcutLine() {
		help = append(help,
			m.theme.ShortcutKey.Render(b.Help().Key)+
				m.theme.ShortcutDesc.Render(" "+b.Help().Desc))
	}
	right := strings.Join(help, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// refreshViewport re-renders the message log into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	if len(m.messages) == 0 {
		b.WriteString(m.theme.ThinkingText.Render("No messages yet. Say hello."))
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) renderMessage(msg model.Message) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render("You")
	default:
		label = m.theme.ModelLabel.Render("Gemini")
	}

	ts := ""
	if !msg.Timestamp.IsZero() {
		ts = " " + m.theme.Timestamp.Render(msg.Timestamp.Local().Format("15:04"))
	}

	body := msg.Text
	switch {
	case msg.Role == model.RoleModel && strings.HasPrefix(body, "Error: "):
		body = m.theme.ErrorText.Render(body)
	case msg.Role == model.RoleModel && m.renderer != nil:
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	default:
		body = m.theme.UserText.Render(body)
	}

	return label + ts + "\n" + body + "\n"
}

// =============================================================================
// LAYOUT HELPERS
// =============================================================================

func (m Model) sidebarWidth() int {
	w := m.cfg.UI.SidebarWidth
	if w <= 0 {
		w = 28
	}
	if m.width > 0 && w > m.width/3 {
		w = m.width / 3
	}
	return w
}

// messageWidth is the column available to the message viewport.
func (m Model) messageWidth() int {
	w := m.width - m.sidebarWidth() - 2
	if w < 1 {
		w = 1
	}
	return w
}

// truncateToWidth shortens s to fit in width display cells.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
