package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"autoscripter/internal/session"

	"gopkg.in/yaml.v3"
)

// Step is one scripted action.
type Step struct {
	Action  string         `yaml:"action"`
	Payload map[string]any `yaml:"payload"`
}

// Scenario puts a fresh session into a known state for demos and
// screenshots.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch name {
	case "editing":
		return Scenario{Name: name, Steps: []Step{
			{Action: session.ActionOpenFile, Payload: map[string]any{"id": "2"}},
			{Action: session.ActionUpdateTabContent, Payload: map[string]any{
				"id":      "2",
				"content": "// Welcome to Universal Auto Scripter IDE!\n\nconsole.log('edited');\n\nexport const answer = 42;\n",
			}},
			{Action: session.ActionOpenFile, Payload: map[string]any{"id": "4"}},
		}}
	case "chatting":
		return Scenario{Name: name, Steps: []Step{
			{Action: session.ActionSendAssistantMessage, Payload: map[string]any{"text": "explain how to fix this bug"}},
		}}
	case "terminal":
		return Scenario{Name: name, Steps: []Step{
			{Action: session.ActionToggleTerminal},
			{Action: session.ActionRunTerminalCommand, Payload: map[string]any{"text": "help"}},
			{Action: session.ActionRunTerminalCommand, Payload: map[string]any{"text": "echo Hello World"}},
			{Action: session.ActionRunTerminalCommand, Payload: map[string]any{"text": "nope"}},
		}}
	case "level_up":
		return Scenario{Name: name, Steps: []Step{
			{Action: session.ActionIncrementLinesOfCode, Payload: map[string]any{"amount": 100}},
			{Action: session.ActionAddXP, Payload: map[string]any{"amount": 250}},
		}}
	case "light_theme":
		return Scenario{Name: name, Steps: []Step{
			{Action: session.ActionSetTheme, Payload: map[string]any{"theme": "light"}},
		}}
	case "focus":
		return Scenario{Name: name, Steps: []Step{
			{Action: session.ActionToggleSidebar},
			{Action: session.ActionToggleAIPanel},
			{Action: session.ActionOpenFile, Payload: map[string]any{"id": "3"}},
		}}
	default:
		return Scenario{Name: "fresh"}
	}
}

// Load reads a scenario from a YAML file.
func (m *Manager) Load(path string) (Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return Scenario{}, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	for i, step := range sc.Steps {
		if step.Action == "" {
			return Scenario{}, fmt.Errorf("load scenario %s: steps[%d].action is required", path, i)
		}
	}
	return sc, nil
}

// Apply dispatches every step in order and returns the final snapshot.
func (m *Manager) Apply(d Dispatcher, sc Scenario) (session.Snapshot, error) {
	var snap session.Snapshot
	for i, step := range sc.Steps {
		var payload any
		if step.Payload != nil {
			payload = step.Payload
		}
		action, err := session.NewAction(step.Action, payload)
		if err != nil {
			return snap, fmt.Errorf("scenario %s step %d: %w", sc.Name, i, err)
		}
		if snap, err = d.Dispatch(action); err != nil {
			return snap, fmt.Errorf("scenario %s step %d: %w", sc.Name, i, err)
		}
	}
	return snap, nil
}

// SetState records the applied scenario so external screenshot tooling can
// tell when the view is ready.
func (m *Manager) SetState(ctx context.Context, cacheDir string, scenario string, version uint64) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "autoscripter")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"scenario":   scenario,
		"version":    version,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}
