package session

import (
	"autoscripter/internal/assistant"
	"autoscripter/internal/console"
	"autoscripter/internal/gamify"
	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"
)

// OpenTab focuses the tab for file, creating it if needed.
func (c *Controller) OpenTab(file workspace.FileNode) Snapshot {
	return c.apply("open_tab", func(t *tx) bool {
		if file.IsFolder() {
			return false
		}
		before := c.docs.ActiveTabID()
		c.docs.OpenTab(file)
		c.syncEditor(t, before)
		return true
	})
}

// OpenFile opens the tree node with fileID and selects it. Folders and
// unknown ids are ignored.
func (c *Controller) OpenFile(fileID string) Snapshot {
	return c.apply("open_file", func(t *tx) bool {
		node, ok := c.docs.FindFile(fileID)
		if !ok || node.IsFolder() {
			return false
		}
		before := c.docs.ActiveTabID()
		c.docs.OpenTab(node)
		c.docs.SetSelectedFile(node.ID)
		c.syncEditor(t, before)
		return true
	})
}

func (c *Controller) CloseTab(tabID string) Snapshot {
	return c.apply("close_tab", func(t *tx) bool {
		if _, ok := c.docs.Tab(tabID); !ok {
			return false
		}
		before := c.docs.ActiveTabID()
		c.docs.CloseTab(tabID)
		c.syncEditor(t, before)
		return true
	})
}

// UpdateTabContent stores an edit from the editor and credits the line
// delta. The editor already holds content, so no sync event is emitted.
func (c *Controller) UpdateTabContent(tabID, content string) Snapshot {
	return c.apply("update_tab_content", func(t *tx) bool {
		edit, ok := c.docs.UpdateTabContent(tabID, content)
		if !ok {
			return false
		}
		t.progress(c.stats.RecordFileEdit(edit.Path))
		t.progress(c.stats.IncrementLinesOfCode(edit.LineDelta()))
		return true
	})
}

func (c *Controller) SetActiveTab(tabID string) Snapshot {
	return c.apply("set_active_tab", func(t *tx) bool {
		before := c.docs.ActiveTabID()
		c.docs.SetActiveTab(tabID)
		c.syncEditor(t, before)
		return true
	})
}

func (c *Controller) SetFiles(files []workspace.FileNode) Snapshot {
	return c.apply("set_files", func(*tx) bool {
		c.docs.SetFiles(files)
		return true
	})
}

func (c *Controller) SetSelectedFile(fileID string) Snapshot {
	return c.apply("set_selected_file", func(*tx) bool {
		c.docs.SetSelectedFile(fileID)
		return true
	})
}

func (c *Controller) AddXP(amount int) Snapshot {
	return c.apply("add_xp", func(t *tx) bool {
		res := c.stats.AddXP(amount, gamify.ReasonManual)
		t.progress(res)
		return len(res.Awards) > 0
	})
}

func (c *Controller) IncrementLinesOfCode(delta int) Snapshot {
	return c.apply("increment_lines_of_code", func(t *tx) bool {
		if delta <= 0 {
			return false
		}
		t.progress(c.stats.IncrementLinesOfCode(delta))
		return true
	})
}

// SendAssistantMessage records the user message and schedules the reply.
// Blank text and sends while a reply is pending are ignored.
func (c *Controller) SendAssistantMessage(text string) Snapshot {
	return c.apply("send_assistant_message", func(*tx) bool {
		msg := assistant.Message{ID: c.newID(), Content: text, Timestamp: c.clock.Now()}
		ticket, ok := c.chat.Begin(msg)
		if !ok {
			return false
		}
		c.schedule(groupAssistant, c.responseDelay(), func() { c.completeReply(ticket) })
		return true
	})
}

// completeReply asks the responder outside the lock and commits the reply
// only if the ticket is still current.
func (c *Controller) completeReply(ticket uint64) {
	c.mu.Lock()
	if c.closed || !c.chat.Awaiting(ticket) {
		c.mu.Unlock()
		return
	}
	transcript := c.chat.Messages()
	ctx := c.ctx
	c.mu.Unlock()

	text, err := c.responder.Respond(ctx, transcript)
	if err != nil {
		c.logger.Error("assistant.reply_failed", map[string]any{
			"session_id": c.id,
			"error":      err.Error(),
		})
		text = "Sorry, I couldn't produce a reply: " + err.Error()
	}

	c.apply("assistant_reply", func(t *tx) bool {
		reply := assistant.Message{ID: c.newID(), Content: text, Timestamp: c.clock.Now()}
		if !c.chat.Complete(ticket, reply) {
			return false
		}
		if err == nil {
			t.progress(c.stats.RecordAssistantExchange())
		}
		return true
	})
}

// ClearAssistantMessages empties the transcript and cancels a pending reply.
func (c *Controller) ClearAssistantMessages() Snapshot {
	return c.apply("clear_assistant_messages", func(*tx) bool {
		c.chat.Clear()
		c.cancelGroup(groupAssistant)
		return true
	})
}

// RunTerminalCommand echoes the command at once and delivers its output
// after the output delay. "clear" truncates the buffer and drops pending
// output.
func (c *Controller) RunTerminalCommand(command string) Snapshot {
	res := c.commands.Exec(c.ctx, command)
	return c.apply("run_terminal_command", func(t *tx) bool {
		if res.Skip {
			return false
		}
		if res.Clear {
			c.cancelGroup(groupTerminal)
		}
		pending, ok := c.term.Submit(command, res)
		if ok {
			c.schedule(groupTerminal, c.outputDelay, func() { c.deliverOutput(pending) })
		}
		t.add(Event{Kind: EventCommand, Command: &CommandRun{Command: command, ExitStatus: res.ExitStatus}})
		return true
	})
}

func (c *Controller) deliverOutput(p console.Pending) {
	c.apply("terminal_output", func(*tx) bool {
		return c.term.Deliver(p)
	})
}

// UpdateSettings merges patch into the settings. A theme change also
// emits a presentation event.
func (c *Controller) UpdateSettings(patch settings.Patch) Snapshot {
	return c.apply("update_settings", func(t *tx) bool {
		pres, themeChanged := c.prefs.Update(patch)
		if themeChanged {
			t.presentation(pres)
		}
		return true
	})
}

func (c *Controller) SetTheme(theme settings.Theme) Snapshot {
	return c.apply("set_theme", func(t *tx) bool {
		t.presentation(c.prefs.SetTheme(theme))
		return true
	})
}

func (c *Controller) ToggleSidebar() Snapshot {
	return c.apply("toggle_sidebar", func(*tx) bool {
		c.ui.SidebarOpen = !c.ui.SidebarOpen
		return true
	})
}

func (c *Controller) ToggleAIPanel() Snapshot {
	return c.apply("toggle_ai_panel", func(*tx) bool {
		c.ui.AIPanelOpen = !c.ui.AIPanelOpen
		return true
	})
}

func (c *Controller) ToggleTerminal() Snapshot {
	return c.apply("toggle_terminal", func(*tx) bool {
		c.ui.TerminalOpen = !c.ui.TerminalOpen
		return true
	})
}
