// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Onrion/t3-cloneathon/internal/chatsync"
	"github.com/Onrion/t3-cloneathon/internal/config"
	"github.com/Onrion/t3-cloneathon/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeController struct {
	created  []string
	deleted  []string
	selected []string
	nextID   string
	err      error
}

func (f *fakeController) CreateThread(ctx context.Context, title string) (string, error) {
	f.created = append(f.created, title)
	return f.nextID, f.err
}

func (f *fakeController) DeleteThread(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeController) Select(id string) {
	f.selected = append(f.selected, id)
}

type fakeWatcher struct {
	watched []string
	err     error
}

func (f *fakeWatcher) Watch(ctx context.Context, threadID string) error {
	f.watched = append(f.watched, threadID)
	return f.err
}

type fakeSender struct {
	sent    []string
	threads []string
	sending bool
	err     error
}

func (f *fakeSender) Send(ctx context.Context, threadID, text string, history []model.Message) error {
	f.sent = append(f.sent, text)
	f.threads = append(f.threads, threadID)
	return f.err
}

func (f *fakeSender) Sending() bool { return f.sending }

func newTestModel(t *testing.T) (Model, *fakeController, *fakeWatcher, *fakeSender) {
	t.Helper()
	fc := &fakeController{nextID: "new-id"}
	fw := &fakeWatcher{}
	fs := &fakeSender{}
	cfg := config.Default()
	id := &model.Identity{ID: "uid", Anonymous: true}
	m := New(cfg, id, fc, fw, fs, nil)

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return sized.(Model), fc, fw, fs
}

// runCmd executes a command synchronously and feeds the result back.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if msg == nil {
		return m
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = runCmd(t, m, c)
		}
		return m
	}
	next, nextCmd := m.Update(msg)
	m = next.(Model)
	if nextCmd != nil {
		// One level is enough for these tests (blink ticks etc. are
		// not re-run).
		if res := nextCmd(); res != nil {
			if _, isBatch := res.(tea.BatchMsg); !isBatch {
				next, _ = m.Update(res)
				m = next.(Model)
			}
		}
	}
	return m
}

// =============================================================================
// TESTS
// =============================================================================

func TestUpdate_ThreadsUpdatedFollowsSelection(t *testing.T) {
	m, _, fw, _ := newTestModel(t)

	threads := []model.Thread{{ID: "t1", Title: "New Chat"}}
	next, cmd := m.Update(SyncMsg{Event: chatsync.ThreadsUpdated{Threads: threads, Selected: "t1"}})
	m = next.(Model)

	assert.Equal(t, "t1", m.Selected())
	require.NotNil(t, cmd, "selection change issues a watch switch")
	cmd()
	assert.Equal(t, []string{"t1"}, fw.watched)
}

func TestUpdate_MessagesForOtherThreadIgnored(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	next, _ := m.Update(SyncMsg{Event: chatsync.ThreadsUpdated{
		Threads:  []model.Thread{{ID: "t1"}},
		Selected: "t1",
	}})
	m = next.(Model)

	next, _ = m.Update(SyncMsg{Event: chatsync.MessagesUpdated{
		ThreadID: "t2",
		Messages: []model.Message{{Text: "leaked", Role: model.RoleUser}},
	}})
	m = next.(Model)
	assert.Empty(t, m.Messages(), "another thread's log never paints")

	next, _ = m.Update(SyncMsg{Event: chatsync.MessagesUpdated{
		ThreadID: "t1",
		Messages: []model.Message{{Text: "mine", Role: model.RoleUser}},
	}})
	m = next.(Model)
	require.Len(t, m.Messages(), 1)
	assert.Equal(t, "mine", m.Messages()[0].Text)
}

func TestUpdate_SubmitSendsInput(t *testing.T) {
	m, _, _, fs := newTestModel(t)

	next, _ := m.Update(SyncMsg{Event: chatsync.ThreadsUpdated{
		Threads:  []model.Thread{{ID: "t1"}},
		Selected: "t1",
	}})
	m = next.(Model)

	m.input.SetValue("hello there")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Empty(t, m.input.Value(), "input clears on submit")
	m = runCmd(t, m, cmd)

	require.Len(t, fs.sent, 1)
	assert.Equal(t, "hello there", fs.sent[0])
	assert.Equal(t, "t1", fs.threads[0])
	assert.False(t, m.sending, "send result clears the in-flight flag")
}

func TestUpdate_SubmitWhileSendingDoesNotStack(t *testing.T) {
	m, _, _, fs := newTestModel(t)
	m.sending = true

	m.input.SetValue("second message")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Empty(t, fs.sent)
	assert.Equal(t, "second message", m.input.Value(), "input is kept")
}

func TestUpdate_NewAndDeleteThreadKeys(t *testing.T) {
	m, fc, _, _ := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = next.(Model)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{model.DefaultThreadTitle}, fc.created)

	// No selection yet: delete is a no-op.
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = next.(Model)
	assert.Nil(t, cmd)

	next, _ = m.Update(SyncMsg{Event: chatsync.ThreadsUpdated{
		Threads:  []model.Thread{{ID: "t1"}},
		Selected: "t1",
	}})
	m = next.(Model)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"t1"}, fc.deleted)
}

func TestUpdate_TabCyclesThreads(t *testing.T) {
	m, fc, _, _ := newTestModel(t)

	next, _ := m.Update(SyncMsg{Event: chatsync.ThreadsUpdated{
		Threads:  []model.Thread{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
		Selected: "t1",
	}})
	m = next.(Model)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Len(t, fc.selected, 1)
	assert.Equal(t, "t2", fc.selected[0])

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Len(t, fc.selected, 2)
	assert.Equal(t, "t3", fc.selected[1], "previous from the first wraps around")
}

func TestView_RendersWithoutPanic(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	next, _ := m.Update(SyncMsg{Event: chatsync.ThreadsUpdated{
		Threads:  []model.Thread{{ID: "t1", Title: "a very long thread title that must truncate"}},
		Selected: "t1",
	}})
	m = next.(Model)
	next, _ = m.Update(SyncMsg{Event: chatsync.MessagesUpdated{
		ThreadID: "t1",
		Messages: []model.Message{
			{Text: "hi", Role: model.RoleUser},
			{Text: "Error: model is overloaded", Role: model.RoleModel},
		},
	}})
	m = next.(Model)

	out := m.View()
	assert.Contains(t, out, "Chats")
	assert.NotEmpty(t, out)
}
