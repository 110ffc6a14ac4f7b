package session

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"autoscripter/internal/assistant"
	"autoscripter/internal/clock"
	"autoscripter/internal/console"
	"autoscripter/internal/gamify"
	"autoscripter/internal/settings"
	"autoscripter/internal/workspace"

	"github.com/google/uuid"
)

const (
	DefaultMinResponseDelay = 1000 * time.Millisecond
	DefaultMaxResponseDelay = 2000 * time.Millisecond
	DefaultOutputDelay      = 100 * time.Millisecond
	DefaultSubscriberBuffer = 64
)

const (
	groupAssistant = "assistant"
	groupTerminal  = "terminal"
)

type Options struct {
	ID        string
	Clock     clock.Clock
	Responder assistant.Responder
	Commands  console.Backend
	Files     []workspace.FileNode
	// Settings overrides the defaults when non-nil.
	Settings *settings.Settings
	Rules    []gamify.Rule
	// ResponseDelay picks the wait before each assistant reply.
	ResponseDelay func() time.Duration
	OutputDelay   time.Duration
	NewID         func() string
	Logger        Logger
}

// UniformDelay returns a picker over [min, max).
func UniformDelay(min, max time.Duration) func() time.Duration {
	if max <= min {
		return func() time.Duration { return min }
	}
	return func() time.Duration { return min + rand.N(max-min) }
}

type scheduled struct {
	timer clock.Timer
	group string
}

// Controller is the single owner of one session's state. Every transition
// runs under mu and publishes its events before returning; delayed work is
// scheduled on the clock and re-enters through the same path.
type Controller struct {
	id            string
	clock         clock.Clock
	responder     assistant.Responder
	commands      console.Backend
	logger        Logger
	newID         func() string
	responseDelay func() time.Duration
	outputDelay   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	docs    *workspace.Store
	stats   *gamify.Engine
	chat    *assistant.Session
	term    *console.Interpreter
	prefs   *settings.Store
	ui      UIState
	version uint64
	closed  bool

	timers   map[uint64]scheduled
	timerSeq uint64

	subs   map[int]chan Event
	subSeq int
}

func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.NewReal()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.ID == "" {
		opts.ID = opts.NewID()
	}
	if opts.Responder == nil {
		opts.Responder = assistant.NewScripted()
	}
	if opts.Commands == nil {
		opts.Commands = console.NewBuiltins(opts.Clock.Now)
	}
	if opts.ResponseDelay == nil {
		opts.ResponseDelay = UniformDelay(DefaultMinResponseDelay, DefaultMaxResponseDelay)
	}
	if opts.OutputDelay <= 0 {
		opts.OutputDelay = DefaultOutputDelay
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	prefs := settings.Defaults()
	if opts.Settings != nil {
		prefs = *opts.Settings
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:            opts.ID,
		clock:         opts.Clock,
		responder:     opts.Responder,
		commands:      opts.Commands,
		logger:        opts.Logger,
		newID:         opts.NewID,
		responseDelay: opts.ResponseDelay,
		outputDelay:   opts.OutputDelay,
		ctx:           ctx,
		cancel:        cancel,
		docs:          workspace.NewStore(opts.Files),
		stats:         gamify.NewEngine(opts.Rules),
		chat:          assistant.NewSession([]assistant.Message{assistant.Welcome(opts.NewID(), opts.Clock.Now())}),
		term:          console.NewInterpreter(opts.NewID, console.Banner()),
		prefs:         settings.NewStore(prefs),
		ui:            DefaultUI(),
		timers:        map[uint64]scheduled{},
		subs:          map[int]chan Event{},
	}
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Presentation() settings.Presentation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return settings.PresentationFor(c.prefs.Get().Theme)
}

// Subscribe returns a channel of events and a cancel func. Events are
// dropped for a subscriber whose buffer is full.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subSeq++
	id := c.subSeq
	c.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops every pending timer and closes subscriber channels. Actions
// after Close are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, s := range c.timers {
		s.timer.Stop()
		delete(c.timers, id)
	}
	c.cancel()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.logger.Info("session.closed", map[string]any{"session_id": c.id})
}

// tx collects the events one transition produces.
type tx struct {
	events []Event
}

func (t *tx) add(ev Event) { t.events = append(t.events, ev) }

func (t *tx) progress(res gamify.Result) {
	for i := range res.Awards {
		award := res.Awards[i]
		t.add(Event{Kind: EventXP, Award: &award})
	}
	for i := range res.Unlocked {
		a := res.Unlocked[i]
		t.add(Event{Kind: EventAchievement, Achievement: &a})
	}
}

func (t *tx) presentation(p settings.Presentation) {
	t.add(Event{Kind: EventPresentation, Presentation: &p})
}

// apply runs fn under the lock. When fn reports a change the version is
// bumped and the collected events plus a state event are published.
func (c *Controller) apply(action string, fn func(t *tx) bool) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked()
	}
	var t tx
	if !fn(&t) {
		return c.snapshotLocked()
	}
	c.version++
	snap := c.snapshotLocked()
	for _, ev := range t.events {
		ev.SessionID = c.id
		ev.Version = c.version
		c.publishLocked(ev)
	}
	c.publishLocked(Event{Kind: EventState, SessionID: c.id, Version: c.version, Snapshot: &snap})
	c.logger.Info("session.transition", map[string]any{
		"session_id": c.id,
		"action":     action,
		"version":    c.version,
	})
	return snap
}

func (c *Controller) publishLocked(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Error("session.subscriber_lagging", map[string]any{
				"session_id": c.id,
				"subscriber": id,
				"kind":       string(ev.Kind),
			})
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	stats := c.stats.Stats()
	return Snapshot{
		SessionID:      c.id,
		Version:        c.version,
		Files:          c.docs.Files(),
		SelectedFileID: c.docs.SelectedFileID(),
		Tabs:           c.docs.Tabs(),
		ActiveTabID:    c.docs.ActiveTabID(),
		Stats: StatsView{
			Stats:       stats,
			Level:       stats.Level(),
			XPIntoLevel: stats.XPIntoLevel(),
			XPPerLevel:  gamify.XPPerLevel,
		},
		Messages:         c.chat.Messages(),
		AwaitingResponse: c.chat.Pending(),
		Terminal:         c.term.Lines(),
		Settings:         c.prefs.Get(),
		UI:               c.ui,
	}
}

// schedule arms fn on the clock. The callback is dropped if the timer was
// cancelled before it ran.
func (c *Controller) schedule(group string, d time.Duration, fn func()) uint64 {
	c.timerSeq++
	id := c.timerSeq
	c.timers[id] = scheduled{
		group: group,
		timer: c.clock.AfterFunc(d, func() {
			c.mu.Lock()
			_, live := c.timers[id]
			delete(c.timers, id)
			c.mu.Unlock()
			if live {
				fn()
			}
		}),
	}
	return id
}

func (c *Controller) cancelGroup(group string) int {
	n := 0
	for id, s := range c.timers {
		if s.group != group {
			continue
		}
		s.timer.Stop()
		delete(c.timers, id)
		n++
	}
	return n
}

// syncEditor emits an editor event when the active tab changed.
func (c *Controller) syncEditor(t *tx, before string) {
	after := c.docs.ActiveTabID()
	if after == before {
		return
	}
	ed := EditorSync{TabID: after}
	if tab, ok := c.docs.ActiveTab(); ok {
		ed.Content = tab.Content
		ed.Language = tab.Language
	}
	t.add(Event{Kind: EventEditorSync, Editor: &ed})
}
