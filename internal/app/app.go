package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"autoscripter/internal/clock"
	"autoscripter/internal/devtools"
	"autoscripter/internal/seed"
	"autoscripter/internal/session"
	"autoscripter/internal/settings"
	"autoscripter/internal/state"
	"autoscripter/internal/telemetry"
	"autoscripter/internal/ui"
	"autoscripter/internal/web"

	"github.com/google/uuid"
)

// App wires one local session to the terminal view, and can also host many
// sessions over HTTP.
type App struct {
	cfg Config

	logger  *telemetry.Logger
	journal state.Journal
	clock   clock.Clock
	seed    seed.Workspace
	demo    *devtools.Manager
	rec     *Recorder

	view ui.View
	ctrl *session.Controller

	recorded  <-chan struct{}
	pumpDone  chan struct{}
	closeOnce sync.Once

	devMu     sync.Mutex
	devServer *http.Server
	devState  struct {
		Scenario string
		Version  uint64
		Error    string
	}
}

type deps struct {
	logger  *telemetry.Logger
	journal state.Journal
	clock   clock.Clock
	view    ui.View
}

func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := telemetry.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	journal, err := openJournal(cfg.JournalPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	view := ui.New(ui.Options{
		ASCIIOnly:   cfg.ASCIIOnly,
		Debug:       cfg.Debug,
		MotionLevel: cfg.MotionLevel,
		Theme:       cfg.Settings.Theme,
	})
	return build(cfg, deps{logger: logger, journal: journal, clock: clock.NewReal(), view: view})
}

// NewServer builds an App without a local session or view, for Serve.
func NewServer(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := telemetry.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	journal, err := openJournal(cfg.JournalPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	return build(cfg, deps{logger: logger, journal: journal, clock: clock.NewReal()})
}

func build(cfg Config, d deps) (*App, error) {
	a, err := newApp(cfg, d)
	if err != nil {
		_ = d.journal.Close()
		_ = d.logger.Close()
		return nil, err
	}
	return a, nil
}

func openJournal(path string) (*state.SQLiteJournal, error) {
	journal, err := state.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := journal.EnsureSchema(context.Background()); err != nil {
		_ = journal.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return journal, nil
}

func newApp(cfg Config, d deps) (*App, error) {
	ws, err := seed.Load(cfg.SeedPath)
	if err != nil {
		return nil, err
	}
	if d.clock == nil {
		d.clock = clock.NewReal()
	}
	a := &App{
		cfg:     cfg,
		logger:  d.logger,
		journal: d.journal,
		clock:   d.clock,
		seed:    ws,
		demo:    devtools.NewManager(),
		rec:     NewRecorder(d.journal, d.logger, d.clock),
		view:    d.view,
	}
	if a.view == nil {
		return a, nil
	}
	a.ctrl = a.newSession(uuid.NewString())
	a.recorded = a.rec.Attach(a.ctrl)
	a.view.SetController(a)
	return a, nil
}

// newSession builds a controller over the seed workspace using the
// configured delays.
func (a *App) newSession(id string) *session.Controller {
	prefs := a.cfg.Settings
	minDelay, maxDelay := a.cfg.responseDelay()
	return session.New(session.Options{
		ID:            id,
		Clock:         a.clock,
		Files:         a.seed.Files,
		Settings:      &prefs,
		ResponseDelay: session.UniformDelay(minDelay, maxDelay),
		OutputDelay:   a.cfg.outputDelay(),
		Logger:        a.logger.With(map[string]any{"session_id": id}),
	})
}

func (a *App) Session() *session.Controller { return a.ctrl }

// Run drives the terminal view until the user quits.
func (a *App) Run(ctx context.Context) error {
	if a.view == nil {
		return errors.New("app has no view")
	}
	a.logger.Info("app.start", map[string]any{"session_id": a.ctrl.ID(), "seed": a.seed.Name})
	a.startPump()

	if a.cfg.DevHTTP != "" {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
	}
	if a.cfg.DemoScenario != "" {
		if _, err := a.runDemoScenario(ctx, a.cfg.DemoScenario); err != nil {
			a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
		}
	}

	go func() {
		<-ctx.Done()
		a.view.Stop()
	}()
	return a.view.Run()
}

// startPump forwards controller events to the view.
func (a *App) startPump() {
	events, cancel := a.ctrl.Subscribe(0)
	a.view.SetPresentation(a.ctrl.Presentation())
	a.view.SetSnapshot(a.ctrl.Snapshot())
	a.pumpDone = make(chan struct{})
	go func() {
		defer close(a.pumpDone)
		defer cancel()
		for ev := range events {
			a.forward(ev)
		}
	}()
}

func (a *App) forward(ev session.Event) {
	switch ev.Kind {
	case session.EventState:
		if ev.Snapshot != nil {
			a.view.SetSnapshot(*ev.Snapshot)
		}
	case session.EventPresentation:
		if ev.Presentation != nil {
			a.view.SetPresentation(*ev.Presentation)
		}
	case session.EventEditorSync:
		if ev.Editor != nil {
			a.view.SyncEditor(*ev.Editor)
		}
	case session.EventXP:
		if ev.Award != nil {
			a.view.NotifyXP(*ev.Award)
		}
	case session.EventAchievement:
		if ev.Achievement != nil {
			a.view.NotifyAchievement(*ev.Achievement)
		}
	case session.EventCommand:
		if ev.Command != nil && ev.Command.ExitStatus != 0 {
			a.view.FlashStatus(fmt.Sprintf("%s: exit %d", ev.Command.Command, ev.Command.ExitStatus))
		}
	}
}

// Recap returns the journal summary of the local session.
func (a *App) Recap(ctx context.Context) (string, error) {
	if a.ctrl == nil {
		return "", errors.New("app has no local session")
	}
	sum, err := a.journal.Summary(ctx, a.ctrl.ID())
	if err != nil {
		return "", err
	}
	recent, err := a.journal.RecentAwards(ctx, a.ctrl.ID(), 5)
	if err != nil {
		return "", err
	}
	return buildRecapText("Session recap", sum, recent), nil
}

// Close stops the local session and flushes the journal.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.devMu.Lock()
		if a.devServer != nil {
			_ = a.devServer.Shutdown(ctx)
		}
		a.devMu.Unlock()
		if a.ctrl == nil {
			return
		}
		a.ctrl.Close()
		a.wait(a.recorded)
		if a.pumpDone != nil {
			a.wait(a.pumpDone)
		}
		a.logger.Info("app.stop", map[string]any{"session_id": a.ctrl.ID()})
	})
}

// Shutdown closes the session, then the journal and the log file.
func (a *App) Shutdown() {
	a.Close()
	if err := a.journal.Close(); err != nil {
		a.logger.Error("journal.close_failed", map[string]any{"error": err.Error()})
	}
	_ = a.logger.Close()
}

func (a *App) wait(ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		a.logger.Error("app.wait_timeout", nil)
	}
}

// Serve hosts sessions over HTTP until ctx is cancelled. Every web session
// is journaled like the local one.
func (a *App) Serve(ctx context.Context) error {
	reg := web.NewRegistry(func(id string) *session.Controller {
		ctrl := a.newSession(id)
		a.rec.Attach(ctrl)
		return ctrl
	}, a.clock)
	host := web.NewHost(web.Config{
		IdleTimeout:  a.cfg.idleTimeout(),
		ReapSchedule: a.cfg.ReapSchedule,
	}, reg, a.logger)
	a.logger.Info("app.serve", map[string]any{"addr": a.cfg.ListenAddr, "seed": a.seed.Name})
	return host.Serve(ctx, a.cfg.ListenAddr)
}

func (a *App) runDemoScenario(ctx context.Context, requested string) (string, error) {
	var sc devtools.Scenario
	if ext := strings.ToLower(filepath.Ext(requested)); ext == ".yaml" || ext == ".yml" {
		loaded, err := a.demo.Load(requested)
		if err != nil {
			a.setDevState(requested, 0, err)
			return "", err
		}
		sc = loaded
	} else {
		sc = a.demo.Resolve(requested)
	}
	snap, err := a.demo.Apply(a.ctrl, sc)
	a.setDevState(sc.Name, snap.Version, err)
	if err != nil {
		return sc.Name, err
	}
	if a.cfg.DevHTTP != "" {
		if err := a.demo.SetState(ctx, "", sc.Name, snap.Version); err != nil {
			a.logger.Error("dev.state_write_failed", map[string]any{"error": err.Error()})
		}
	}
	a.logger.Info("dev.demo.applied", map[string]any{"requested": requested, "scenario": sc.Name, "version": snap.Version})
	return sc.Name, nil
}

func (a *App) setDevState(scenario string, version uint64, err error) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.Scenario = scenario
	a.devState.Version = version
	a.devState.Error = ""
	if err != nil {
		a.devState.Error = err.Error()
	}
}

func (a *App) getDevState() map[string]any {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	return map[string]any{
		"session_id": a.ctrl.ID(),
		"scenario":   a.devState.Scenario,
		"version":    a.devState.Version,
		"error":      a.devState.Error,
	}
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", map[string]any{"session_id": a.ctrl.ID()})
	a.view.Stop()
}

func (a *App) OnResize(cols, rows int) {
	a.logger.Debug("ui.resize", map[string]any{"cols": cols, "rows": rows, "layout": ui.DetermineLayoutMode(cols, rows).String()})
}

func (a *App) OnOpenFile(fileID string) { a.ctrl.OpenFile(fileID) }

func (a *App) OnSelectTab(tabID string) { a.ctrl.SetActiveTab(tabID) }

func (a *App) OnCloseTab(tabID string) { a.ctrl.CloseTab(tabID) }

func (a *App) OnEditorChange(tabID, content string) { a.ctrl.UpdateTabContent(tabID, content) }

func (a *App) OnSendAssistant(text string) { a.ctrl.SendAssistantMessage(text) }

func (a *App) OnClearAssistant() { a.ctrl.ClearAssistantMessages() }

func (a *App) OnTerminalCommand(command string) { a.ctrl.RunTerminalCommand(command) }

func (a *App) OnToggleSidebar() { a.ctrl.ToggleSidebar() }

func (a *App) OnToggleAIPanel() { a.ctrl.ToggleAIPanel() }

func (a *App) OnToggleTerminal() { a.ctrl.ToggleTerminal() }

func (a *App) OnCycleTheme() {
	current := a.ctrl.Snapshot().Settings.Theme
	a.ctrl.SetTheme(ui.NextTheme(current, 1))
}

func (a *App) OnUpdateSettings(patch settings.Patch) { a.ctrl.UpdateSettings(patch) }

var _ ui.Controller = (*App)(nil)
