package seed

import (
	"fmt"
	"strings"

	"autoscripter/internal/workspace"
)

const (
	WorkspaceKind          = "workspace"
	SupportedSchemaVersion = 1
)

// Workspace is the on-disk description of an initial file tree.
type Workspace struct {
	Kind          string               `yaml:"kind"`
	SchemaVersion int                  `yaml:"schema_version"`
	Name          string               `yaml:"name"`
	Files         []workspace.FileNode `yaml:"files"`

	Path string `yaml:"-"`
}

func (w Workspace) Validate() error {
	if w.Kind != WorkspaceKind {
		return fmt.Errorf("kind must be %q", WorkspaceKind)
	}
	if w.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if w.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported workspace schema_version %d (max supported %d)", w.SchemaVersion, SupportedSchemaVersion)
	}
	if w.Name == "" {
		return fmt.Errorf("name is required")
	}
	ids := map[string]struct{}{}
	paths := map[string]struct{}{}
	return validateNodes(w.Files, "", ids, paths)
}

func validateNodes(nodes []workspace.FileNode, parent string, ids, paths map[string]struct{}) error {
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("files[].id is required (under %q)", parent)
		}
		if _, ok := ids[n.ID]; ok {
			return fmt.Errorf("duplicate file id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
		if n.Name == "" {
			return fmt.Errorf("file %q: name is required", n.ID)
		}
		if !strings.HasPrefix(n.Path, "/") {
			return fmt.Errorf("file %q: path must start with /", n.ID)
		}
		if parent != "" && !strings.HasPrefix(n.Path, strings.TrimSuffix(parent, "/")+"/") {
			return fmt.Errorf("file %q: path %q is not under %q", n.ID, n.Path, parent)
		}
		if _, ok := paths[n.Path]; ok {
			return fmt.Errorf("duplicate path %q", n.Path)
		}
		paths[n.Path] = struct{}{}
		switch n.Kind {
		case workspace.KindFile:
			if len(n.Children) > 0 {
				return fmt.Errorf("file %q: files cannot have children", n.ID)
			}
		case workspace.KindFolder:
			if n.Content != "" {
				return fmt.Errorf("folder %q: folders cannot have content", n.ID)
			}
			if err := validateNodes(n.Children, n.Path, ids, paths); err != nil {
				return err
			}
		default:
			return fmt.Errorf("file %q: invalid type %q", n.ID, n.Kind)
		}
	}
	return nil
}
