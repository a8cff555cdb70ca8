// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Onrion/t3-cloneathon/internal/chatsync"
	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/pipeline"
	"github.com/Onrion/t3-cloneathon/internal/ui/styles"
)

// opTimeout bounds one store operation issued from the UI.
const opTimeout = 30 * time.Second

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SyncMsg:
		return m.handleSync(msg.Event)

	case sendResultMsg:
		m.sending = false
		if msg.err != nil {
			m.statusMsg = sendErrorStatus(msg.err)
		} else {
			m.statusMsg = ""
		}
		return m, nil

	case watchResultMsg:
		if msg.err != nil {
			m.log.Error("thread watch failed",
				zap.String("thread", msg.threadID), zap.Error(msg.err))
			m.statusMsg = "failed to open chat"
		}
		return m, nil

	case threadOpMsg:
		if msg.err != nil {
			m.log.Error("thread operation failed",
				zap.String("op", msg.op), zap.Error(msg.err))
			m.statusMsg = "failed to " + msg.op + " chat"
		}
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.theme = styles.NewTheme(m.cfg.UI.Theme)
		m.rebuildRenderer(m.messageWidth())
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpWidth := m.messageWidth()
	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 6

	m.rebuildRenderer(vpWidth)
	m.refreshViewport()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.NewThread):
		return m, m.createThreadCmd()

	case key.Matches(msg, m.keyMap.DeleteThread):
		if m.selected == "" {
			return m, nil
		}
		return m, m.deleteThreadCmd(m.selected)

	case key.Matches(msg, m.keyMap.NextThread):
		m.selectOffset(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PrevThread):
		m.selectOffset(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSync(ev chatsync.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case chatsync.ThreadsUpdated:
		m.threads = ev.Threads
		prev := m.selected
		m.selected = ev.Selected
		// The watched thread follows the selection, including the
		// delete-and-reselect case and the vanish of the last thread.
		if m.selected != prev || m.selected != m.msgThreadID {
			return m, m.watchCmd(m.selected)
		}
		return m, nil

	case chatsync.MessagesUpdated:
		// A late push for a thread we already left would paint another
		// thread's log; the sync layer discards those, and this guard
		// covers the remaining in-flight window.
		if ev.ThreadID != m.selected {
			return m, nil
		}
		m.messages = ev.Messages
		m.msgThreadID = ev.ThreadID
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case chatsync.SyncFailed:
		m.log.Error("sync failed", zap.String("scope", ev.Scope), zap.Error(ev.Err))
		m.statusMsg = "connection trouble (" + ev.Scope + ")"
		return m, nil
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input line through the pipeline.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if m.sending {
		m.statusMsg = "still sending..."
		return m, nil
	}
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	threadID := m.selected
	history := m.messages
	m.input.Reset()
	m.sending = true
	m.statusMsg = ""

	return m, tea.Batch(
		m.spinner.Tick,
		m.sendCmd(threadID, text, history),
		textinput.Blink,
	)
}

// selectOffset moves the selection within the thread list.
func (m *Model) selectOffset(delta int) {
	if len(m.threads) == 0 {
		return
	}
	idx := 0
	for i, th := range m.threads {
		if th.ID == m.selected {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(m.threads)) % len(m.threads)
	m.controller.Select(m.threads[idx].ID)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) sendCmd(threadID, text string, history []model.Message) tea.Cmd {
	return func() tea.Msg {
		err := m.sender.Send(context.Background(), threadID, text, history)
		return sendResultMsg{err: err}
	}
}

func (m Model) watchCmd(threadID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return watchResultMsg{threadID: threadID, err: m.watcher.Watch(ctx, threadID)}
	}
}

func (m Model) createThreadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := m.controller.CreateThread(ctx, model.DefaultThreadTitle)
		return threadOpMsg{op: "create", err: err}
	}
}

func (m Model) deleteThreadCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return threadOpMsg{op: "delete", err: m.controller.DeleteThread(ctx, id)}
	}
}

// sendErrorStatus maps pipeline rejections onto status text. Completion
// failures never reach here; they arrive as model turns.
func sendErrorStatus(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrBlankText):
		return ""
	case errors.Is(err, pipeline.ErrBusy):
		return "still sending..."
	case errors.Is(err, pipeline.ErrNoThread):
		return "no chat selected"
	default:
		return "send failed"
	}
}
