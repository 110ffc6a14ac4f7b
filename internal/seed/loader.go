package seed

import (
	_ "embed"
	"fmt"
	"os"

	"autoscripter/internal/workspace"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in starter workspace.
func Default() Workspace {
	w, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded workspace is invalid: %v", err))
	}
	return w
}

// Load reads a workspace file, or returns Default when path is empty.
func Load(path string) (Workspace, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Workspace{}, err
	}
	w, err := Parse(b)
	if err != nil {
		return Workspace{}, fmt.Errorf("load workspace %s: %w", path, err)
	}
	w.Path = path
	return w, nil
}

func Parse(b []byte) (Workspace, error) {
	var w Workspace
	if err := yaml.Unmarshal(b, &w); err != nil {
		return w, err
	}
	applyDefaults(&w)
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

func applyDefaults(w *Workspace) {
	var fill func(nodes []workspace.FileNode)
	fill = func(nodes []workspace.FileNode) {
		for i := range nodes {
			if nodes[i].Kind == "" {
				if len(nodes[i].Children) > 0 {
					nodes[i].Kind = workspace.KindFolder
				} else {
					nodes[i].Kind = workspace.KindFile
				}
			}
			if nodes[i].Kind == workspace.KindFile && nodes[i].Language == "" {
				nodes[i].Language = "plaintext"
			}
			fill(nodes[i].Children)
		}
	}
	fill(w.Files)
}
