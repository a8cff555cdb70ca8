// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/Onrion/t3-cloneathon/internal/config"
	"github.com/Onrion/t3-cloneathon/internal/model"
	"github.com/Onrion/t3-cloneathon/internal/ui/styles"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// ThreadController is the thread-list side of the sync layer.
type ThreadController interface {
	CreateThread(ctx context.Context, title string) (string, error)
	DeleteThread(ctx context.Context, id string) error
	Select(id string)
}

// MessageWatcher switches the live message subscription between threads.
type MessageWatcher interface {
	Watch(ctx context.Context, threadID string) error
}

// Sender is the send pipeline.
type Sender interface {
	Send(ctx context.Context, threadID, text string, history []model.Message) error
	Sending() bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme  *styles.Theme
	keyMap KeyMap

	// Configuration
	cfg *config.Config
	log *zap.Logger

	// Who we are
	identity *model.Identity

	// Collaborators
	controller ThreadController
	watcher    MessageWatcher
	sender     Sender

	// Synced state (renders of the latest pushes)
	threads     []model.Thread
	selected    string
	messages    []model.Message
	msgThreadID string

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Markdown rendering
	renderer *glamour.TermRenderer

	// Transient state
	sending   bool
	statusMsg string
}

// New creates the chat view. The collaborators are already started; the
// view only issues operations against them.
func New(cfg *config.Config, id *model.Identity, controller ThreadController, watcher MessageWatcher, sender Sender, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		theme:      theme,
		keyMap:     DefaultKeyMap(),
		cfg:        cfg,
		log:        log,
		identity:   id,
		controller: controller,
		watcher:    watcher,
		sender:     sender,
		input:      input,
		spinner:    sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Threads returns the rendered thread list (tests).
func (m Model) Threads() []model.Thread {
	return m.threads
}

// Selected returns the active thread id (tests).
func (m Model) Selected() string {
	return m.selected
}

// Messages returns the rendered message log (tests).
func (m Model) Messages() []model.Message {
	return m.messages
}

// rebuildRenderer recreates the glamour renderer for the current
// message column width. Glamour wraps at render time, so the renderer
// has to track resizes.
func (m *Model) rebuildRenderer(width int) {
	if !m.cfg.UI.Markdown || width < 10 {
		m.renderer = nil
		return
	}
	style := "dark"
	if !m.theme.IsDark {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		m.renderer = nil
		return
	}
	m.renderer = r
}
