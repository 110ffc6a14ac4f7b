package ui

import (
	"fmt"
	"strings"

	"autoscripter/internal/assistant"
	"autoscripter/internal/console"
	"autoscripter/internal/gamify"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

func (r *Root) renderWorkspace() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	if mode == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(60, w), min(12, h), false)
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	l := computeLayout(mode, w, h, r.snap.UI)
	var cols []string
	if l.explorerW > 0 {
		cols = append(cols, r.renderExplorer(l.explorerW, l.bodyH))
	}
	cols = append(cols, r.renderEditor(l.editorW, l.bodyH))
	if l.assistW > 0 {
		cols = append(cols, r.renderAssistant(l.assistW, l.bodyH))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if l.terminalH > 0 {
		body += "\n" + r.renderTerminal(w, l.terminalH)
	}
	return r.headerText() + "\n" + body + "\n" + r.statusText()
}

func (r *Root) renderExplorer(width, height int) string {
	rows := r.explorerRows()
	innerW := width - 2
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		icon := "  "
		if row.node.IsFolder() {
			icon = "▾ "
			if r.collapsed[row.node.ID] {
				icon = "▸ "
			}
			if r.ascii {
				icon = "v "
				if r.collapsed[row.node.ID] {
					icon = "> "
				}
			}
		}
		label := strings.Repeat("  ", row.depth) + icon + row.node.Name
		if row.node.ID == r.snap.SelectedFileID {
			label += " *"
		}
		label = trimForWidth(label, innerW)
		if i == r.explorerIndex && r.focus == FocusExplorer {
			label = r.theme.Accent.Render(padRune(label, innerW))
		}
		lines = append(lines, label)
	}
	if len(lines) == 0 {
		lines = append(lines, r.theme.Muted.Render("No files"))
	}
	return r.drawPanel("Explorer", scrollTo(lines, r.explorerIndex, height-2), width, height, r.focus == FocusExplorer)
}

func (r *Root) renderEditor(width, height int) string {
	innerW := width - 2
	innerH := height - 2
	lines := []string{r.tabStrip(innerW)}

	if r.editorTabID == "" {
		lines = append(lines,
			"",
			r.theme.Accent.Render(console.ProductName),
			"",
			r.theme.Muted.Render("Select a file in the explorer and press Enter."),
			r.theme.Muted.Render("Press F1 for the key reference."),
		)
	} else {
		r.editor.SetWidth(max(10, innerW))
		r.editor.SetHeight(max(1, innerH-1))
		lines = append(lines, strings.Split(r.editor.View(), "\n")...)
	}

	title := "Editor"
	if tab, ok := r.snap.ActiveTab(); ok {
		title = tab.Path
		if r.editorLang != "" {
			title += " (" + r.editorLang + ")"
		}
	}
	return r.drawPanel(title, lines, width, height, r.focus == FocusEditor)
}

func (r *Root) tabStrip(width int) string {
	if len(r.snap.Tabs) == 0 {
		return r.theme.Muted.Render("no open tabs")
	}
	dirty := "●"
	if r.ascii {
		dirty = "*"
	}
	parts := make([]string, 0, len(r.snap.Tabs))
	for _, tab := range r.snap.Tabs {
		label := tab.Title
		if tab.Dirty {
			label += " " + dirty
		}
		if tab.ID == r.snap.ActiveTabID {
			label = r.theme.Accent.Render("[" + label + "]")
		} else {
			label = r.theme.Muted.Render(" " + label + " ")
		}
		parts = append(parts, label)
	}
	return truncateANSI(strings.Join(parts, " "), width)
}

func (r *Root) renderAssistant(width, height int) string {
	innerW := width - 2
	innerH := height - 2

	var body []string
	for _, msg := range r.snap.Messages {
		body = append(body, r.renderMessage(msg, innerW)...)
		body = append(body, "")
	}
	if r.snap.AwaitingResponse {
		body = append(body, r.theme.Pending.Render(strings.TrimSpace(r.thinking.View())+" AI is thinking..."))
	}

	input := truncateANSI(r.prompt.View(), innerW)
	visible := max(1, innerH-1)
	if len(body) > visible {
		body = body[len(body)-visible:]
	}
	for len(body) < visible {
		body = append(body, "")
	}
	body = append(body, input)
	return r.drawPanel("AI Assistant", body, width, height, r.focus == FocusAssistant)
}

func (r *Root) renderMessage(msg assistant.Message, width int) []string {
	stamp := msg.Timestamp.Format("15:04")
	if msg.Role == assistant.RoleUser {
		head := r.theme.Info.Render("You") + " " + r.theme.Muted.Render(stamp)
		return append([]string{head}, wrapText(msg.Content, width)...)
	}
	head := r.theme.Accent.Render("Assistant") + " " + r.theme.Muted.Render(stamp)
	out := []string{head}
	if md := r.markdownRenderer(max(10, width-2)); md != nil {
		if rendered, err := md.Render(msg.Content); err == nil {
			for _, line := range strings.Split(strings.Trim(rendered, "\n"), "\n") {
				out = append(out, truncateANSI(line, width))
			}
			return out
		}
	}
	return append(out, wrapText(msg.Content, width)...)
}

func (r *Root) renderTerminal(width, height int) string {
	innerW := width - 2
	innerH := height - 2
	var lines []string
	for _, line := range r.snap.Terminal {
		for _, part := range strings.Split(line.Content, "\n") {
			switch line.Kind {
			case console.KindInput:
				lines = append(lines, r.theme.Info.Render(trimForWidth("$ "+part, innerW)))
			case console.KindError:
				lines = append(lines, r.theme.Fail.Render(trimForWidth(part, innerW)))
			default:
				lines = append(lines, trimForWidth(part, innerW))
			}
		}
	}
	visible := max(1, innerH-1)
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	lines = append(lines, truncateANSI(r.shell.View(), innerW))
	return r.drawPanel("Terminal", lines, width, height, r.focus == FocusTerminal)
}

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	stats := r.snap.Stats
	per := stats.XPPerLevel
	if per <= 0 {
		per = gamify.XPPerLevel
	}
	level := max(1, stats.Level)
	pct := float64(stats.XPIntoLevel) / float64(per)
	unlocked := 0
	for _, a := range stats.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}

	bar := r.xpBar
	bar.SetWidth(16)
	parts := []string{
		console.ProductName,
		fmt.Sprintf("Lv %d", level),
		bar.ViewAs(pct) + fmt.Sprintf(" %d/%d XP", stats.XPIntoLevel, per),
		fmt.Sprintf("Achievements %d/%d", unlocked, len(stats.Achievements)),
		"Theme: " + string(r.pres.Theme),
	}
	if r.debug {
		parts = append(parts, fmt.Sprintf("%dx%d %v", r.cols, r.rows, r.layout))
	}
	txt := truncateANSI(strings.Join(parts, " | "), width)
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "Tab Focus  F1 Help  F2 Files  F3 AI  F4 Terminal  F5 Theme  C-q Quit"
	}
	keys += " | " + r.theme.Info.Render(r.focus.String())
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = truncateANSI(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) renderOverlay() string {
	switch {
	case r.helpOpen:
		return r.theme.Overlay.Render(r.theme.OverlayTitle.Render("Keys") + "\n\n" + r.helpText() + "\n\n" + r.theme.Muted.Render("Esc to close"))
	case r.settingsOpen:
		return r.theme.Overlay.Render(r.theme.OverlayTitle.Render("Settings") + "\n\n" + r.settingsText() + "\n\n" + r.theme.Muted.Render("Left/Right to change, Esc to close"))
	}
	return ""
}

func (r *Root) helpText() string {
	var b strings.Builder
	for _, group := range r.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "%-8s %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\nExplorer: Up/Down move, Enter opens a file or toggles a folder\n")
	b.WriteString("Terminal: Up/Down recall history")
	return b.String()
}

func (r *Root) settingsText() string {
	rows := settingsRows()
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		marker := "  "
		if i == r.settingsIndex {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%-10s %s", marker, row.label, row.value(r.snap.Settings)))
	}
	return strings.Join(lines, "\n")
}

func (r *Root) renderToast() string {
	if r.toast == nil || r.toastPos <= 0.001 {
		return ""
	}
	body := r.toast.title + "\n" + r.toast.text
	return r.drawPanel("", strings.Split(body, "\n"), toastWidth, 2+len(strings.Split(body, "\n")), true)
}

func (r *Root) drawPanel(title string, lines []string, width, height int, focused bool) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}
	border := r.theme.PanelBorder
	if focused {
		border = r.theme.FocusBorder
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + trimForWidth(title, innerW-2) + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, border.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, border.Render(v)+r.theme.PanelBody.Render(padANSI(line, innerW))+border.Render(v))
	}
	out = append(out, border.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

// scrollTo returns the window of lines of the given height that keeps
// index visible.
func scrollTo(lines []string, index, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if index >= height {
		start = index - height + 1
	}
	end := min(len(lines), start+height)
	return lines[start:end]
}

func wrapText(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		wrapped := ansi.Wordwrap(para, width, "")
		out = append(out, strings.Split(wrapped, "\n")...)
	}
	return out
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

// padANSI pads or cuts a styled line to exactly width cells.
func padANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = truncateANSI(strings.ReplaceAll(s, "\t", "    "), width)
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func truncateANSI(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func composeOverlay(base, overlay string, cols, rows int) string {
	overlayLines := strings.Split(strings.TrimRight(ansi.Strip(overlay), "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, len([]rune(line)))
	}
	ow = min(ow, cols)
	oh := min(len(overlayLines), rows)
	return composeOverlayAt(base, overlay, cols, rows, (rows-oh)/2, max(0, (cols-ow)/2))
}

func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, len([]rune(line)))
	}
	ow = min(ow, cols)
	startRow = max(0, startRow)
	startCol = max(0, startCol)

	for i, line := range overlayLines {
		row := startRow + i
		if row >= rows {
			break
		}
		dst := []rune(baseLines[row])
		src := []rune(line)
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
