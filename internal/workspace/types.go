package workspace

type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// FileNode is one entry of the seeded tree. Path is the stable identity used
// for tab deduplication.
type FileNode struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Kind     Kind       `json:"type" yaml:"type"`
	Path     string     `json:"path" yaml:"path"`
	Content  string     `json:"content,omitempty" yaml:"content,omitempty"`
	Language string     `json:"language,omitempty" yaml:"language,omitempty"`
	Children []FileNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func (n FileNode) IsFolder() bool { return n.Kind == KindFolder }

// Tab holds an independent copy of the node's content taken at open time.
type Tab struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language"`
	Path     string `json:"path"`
	Dirty    bool   `json:"isDirty"`
}

// Edit describes one content replacement so callers can derive line deltas.
type Edit struct {
	TabID       string
	Path        string
	LinesBefore int
	LinesAfter  int
}

// LineDelta is abs(after-before).
func (e Edit) LineDelta() int {
	d := e.LinesAfter - e.LinesBefore
	if d < 0 {
		return -d
	}
	return d
}
