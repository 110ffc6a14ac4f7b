package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"autoscripter/internal/gamify"
	"autoscripter/internal/session"
	"autoscripter/internal/settings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
)

const (
	toastDuration = 4 * time.Second
	toastWidth    = 40
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time
type animateMsg time.Time

type ideKeyMap struct {
	NextFocus     key.Binding
	PrevFocus     key.Binding
	Help          key.Binding
	Sidebar       key.Binding
	AIPanel       key.Binding
	Terminal      key.Binding
	Theme         key.Binding
	Settings      key.Binding
	PrevTab       key.Binding
	NextTab       key.Binding
	CloseTab      key.Binding
	ClearChat     key.Binding
	Quit          key.Binding
	explorerEnter key.Binding
}

func (k ideKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.Help, k.Sidebar, k.AIPanel, k.Terminal, k.Theme, k.Quit}
}

func (k ideKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextFocus, k.PrevFocus, k.Help, k.Settings},
		{k.Sidebar, k.AIPanel, k.Terminal, k.Theme},
		{k.PrevTab, k.NextTab, k.CloseTab, k.ClearChat, k.Quit},
	}
}

func defaultKeyMap() ideKeyMap {
	return ideKeyMap{
		NextFocus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Focus")),
		PrevFocus:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-Tab", "Back")),
		Help:          key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Help")),
		Sidebar:       key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Files")),
		AIPanel:       key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "AI")),
		Terminal:      key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Terminal")),
		Theme:         key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Theme")),
		Settings:      key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Settings")),
		PrevTab:       key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "Prev tab")),
		NextTab:       key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "Next tab")),
		CloseTab:      key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("C-w", "Close tab")),
		ClearChat:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("C-l", "Clear chat")),
		Quit:          key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("C-q", "Quit")),
		explorerEnter: key.NewBinding(key.WithKeys("enter", "space", "right")),
	}
}

type toast struct {
	title string
	text  string
	until time.Time
}

type Root struct {
	theme       Theme
	ascii       bool
	debug       bool
	ctrl        Controller
	motionLevel string

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	snap          session.Snapshot
	pres          settings.Presentation
	focus         Focus
	collapsed     map[string]bool
	explorerIndex int
	statusFlash   string

	editor      textarea.Model
	editorTabID string
	editorValue string
	editorLang  string

	prompt      textinput.Model
	shell       textinput.Model
	shellHist   []string
	shellCursor int

	helpOpen      bool
	settingsOpen  bool
	settingsIndex int

	toast    *toast
	toastPos float64
	toastVel float64
	spring   harmonica.Spring

	help          help.Model
	keymap        ideKeyMap
	xpBar         progress.Model
	thinking      spinner.Model
	markdown      *glamour.TermRenderer
	markdownWidth int
	markdownDark  bool
	logger        *clog.Logger

	now            func() time.Time
	lastInputEvent string
}

type Options struct {
	ASCIIOnly   bool
	Debug       bool
	MotionLevel string
	Theme       settings.Theme
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "autoscripter-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}

	editor := textarea.New()
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Placeholder = "Open a file from the explorer to start editing."

	prompt := textinput.New()
	prompt.Prompt = "> "
	prompt.Placeholder = "Ask the assistant..."

	shell := textinput.New()
	shell.Prompt = "$ "
	shell.Placeholder = `try "help"`

	theme := opts.Theme
	if theme == "" {
		theme = settings.ThemeDark
	}

	r := &Root{
		ascii:       opts.ASCIIOnly,
		debug:       opts.Debug,
		motionLevel: motionLevel,
		layout:      LayoutWide,
		cols:        120,
		rows:        30,
		focus:       FocusExplorer,
		collapsed:   map[string]bool{},
		editor:      editor,
		prompt:      prompt,
		shell:       shell,
		help:        help.New(),
		keymap:      defaultKeyMap(),
		logger:      logger,
		spring:      spring,
		now:         time.Now,
		snap:        session.Snapshot{UI: session.DefaultUI(), Settings: settings.Defaults()},
	}
	r.applyPresentation(settings.PresentationFor(theme))
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.thinking))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.dispatchController(func(c Controller) { c.OnResize(msg.Width, msg.Height) })
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clockMsg:
		if r.toast != nil && !r.now().Before(r.toast.until) {
			r.toast.until = time.Time{}
			if r.motionLevel == "off" {
				r.toast, r.toastPos = nil, 0
				return r, clockTickCmd()
			}
			return r, tea.Batch(clockTickCmd(), r.animateIfNeeded())
		}
		return r, clockTickCmd()
	case animateMsg:
		target := r.toastTarget()
		r.toastPos, r.toastVel = r.spring.Update(r.toastPos, r.toastVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.toastPos, r.toastVel = target, 0
		if target == 0 {
			r.toast = nil
		}
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.thinking, cmd = r.thinking.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	base := r.renderWorkspace()
	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	} else if t := r.renderToast(); t != "" {
		col := r.cols - int(float64(toastWidth+1)*r.toastPos)
		base = composeOverlayAt(base, t, r.cols, r.rows, 1, col)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

// SetSnapshot replaces the rendered state. The editor buffer is only
// reloaded when the active tab changed, so typing is never clobbered by the
// echo of its own update.
func (r *Root) SetSnapshot(snap session.Snapshot) {
	r.apply(func(m *Root) {
		m.snap = snap
		active, ok := snap.ActiveTab()
		switch {
		case !ok:
			m.loadEditor(session.EditorSync{})
		case active.ID != m.editorTabID:
			m.loadEditor(session.EditorSync{TabID: active.ID, Content: active.Content, Language: active.Language})
		}
		m.explorerIndex = clampIndex(m.explorerIndex, len(m.explorerRows()))
		m.ensureFocusVisible()
	})
}

func (r *Root) SetPresentation(p settings.Presentation) {
	r.apply(func(m *Root) {
		m.applyPresentation(p)
	})
}

func (r *Root) SyncEditor(sync session.EditorSync) {
	r.apply(func(m *Root) {
		m.loadEditor(sync)
	})
}

func (r *Root) NotifyAchievement(a gamify.Achievement) {
	r.apply(func(m *Root) {
		m.toast = &toast{
			title: "Achievement unlocked",
			text:  strings.TrimSpace(a.Icon + " " + a.Title),
			until: m.now().Add(toastDuration),
		}
		if a.Description != "" {
			m.toast.text += "\n" + a.Description
		}
		if m.motionLevel == "off" {
			m.toastPos = 1
		}
	})
}

func (r *Root) NotifyXP(award gamify.Award) {
	r.apply(func(m *Root) {
		m.statusFlash = fmt.Sprintf("+%d XP (%s)", award.Amount, awardLabel(award.Reason))
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) applyPresentation(p settings.Presentation) {
	r.pres = p
	r.theme = ThemeFor(p.Theme)
	if r.theme.Dark {
		r.help.Styles = help.DefaultDarkStyles()
	} else {
		r.help.Styles = help.DefaultLightStyles()
	}
	r.xpBar = progress.New(
		progress.WithWidth(20),
		progress.WithColors(r.theme.BarStart, r.theme.BarEnd),
		progress.WithScaled(true),
	)
	if r.motionLevel == "off" {
		r.xpBar.SetSpringOptions(1000.0, 1.0)
	}
	r.thinking = spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(r.theme.Accent),
	)
	r.markdown = nil
}

func (r *Root) loadEditor(sync session.EditorSync) {
	r.editorTabID = sync.TabID
	r.editorLang = sync.Language
	r.editorValue = sync.Content
	r.editor.SetValue(sync.Content)
}

// commitEditorChange reports the buffer to the controller when it differs
// from the last value seen for the active tab.
func (r *Root) commitEditorChange() {
	if r.editorTabID == "" {
		return
	}
	value := r.editor.Value()
	if value == r.editorValue {
		return
	}
	r.editorValue = value
	tabID := r.editorTabID
	r.dispatchController(func(c Controller) { c.OnEditorChange(tabID, value) })
}

// markdownRenderer caches a glamour renderer per wrap width and palette.
func (r *Root) markdownRenderer(width int) *glamour.TermRenderer {
	if r.markdown != nil && r.markdownWidth == width && r.markdownDark == r.theme.Dark {
		return r.markdown
	}
	style := "light"
	if r.theme.Dark {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.logger.Warn("ui.markdown_renderer_failed", "err", err)
		return nil
	}
	r.markdown = renderer
	r.markdownWidth = width
	r.markdownDark = r.theme.Dark
	return renderer
}

func (r *Root) toastTarget() float64 {
	if r.toast != nil && !r.toast.until.IsZero() {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.toast == nil {
		return nil
	}
	if r.shouldAnimate(r.toastTarget()) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.toastPos < 0.999 || abs(r.toastVel) > 0.001
	}
	return r.toastPos > 0.001 || abs(r.toastVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func awardLabel(reason string) string {
	switch reason {
	case gamify.ReasonLines:
		return "lines of code"
	case gamify.ReasonAssistant:
		return "assistant"
	case "":
		return "bonus"
	default:
		return reason
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"focus", r.focus.String(),
		"layout", r.layout.String(),
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
