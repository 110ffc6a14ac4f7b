package workspace

import "strings"

const defaultLanguage = "plaintext"

type Store struct {
	files          []FileNode
	selectedFileID string
	tabs           []Tab
	activeTabID    string
}

func NewStore(files []FileNode) *Store {
	return &Store{files: CloneTree(files)}
}

// OpenTab activates the tab already bound to file.Path, or appends a new
// clean tab and activates it.
func (s *Store) OpenTab(file FileNode) {
	for _, tab := range s.tabs {
		if tab.Path == file.Path {
			s.activeTabID = tab.ID
			return
		}
	}
	lang := file.Language
	if lang == "" {
		lang = defaultLanguage
	}
	tab := Tab{
		ID:       file.ID,
		Title:    file.Name,
		Content:  file.Content,
		Language: lang,
		Path:     file.Path,
	}
	s.tabs = append(s.tabs, tab)
	s.activeTabID = tab.ID
}

// CloseTab removes the tab. Closing the active tab activates the last tab of
// the remaining list, or none.
func (s *Store) CloseTab(tabID string) {
	kept := make([]Tab, 0, len(s.tabs))
	for _, tab := range s.tabs {
		if tab.ID != tabID {
			kept = append(kept, tab)
		}
	}
	s.tabs = kept
	if s.activeTabID != tabID {
		return
	}
	if len(kept) == 0 {
		s.activeTabID = ""
		return
	}
	s.activeTabID = kept[len(kept)-1].ID
}

// UpdateTabContent replaces the content and marks the tab dirty, even when
// the content is unchanged. ok is false for unknown ids.
func (s *Store) UpdateTabContent(tabID, content string) (Edit, bool) {
	for i := range s.tabs {
		if s.tabs[i].ID != tabID {
			continue
		}
		edit := Edit{
			TabID:       tabID,
			Path:        s.tabs[i].Path,
			LinesBefore: CountLines(s.tabs[i].Content),
			LinesAfter:  CountLines(content),
		}
		s.tabs[i].Content = content
		s.tabs[i].Dirty = true
		return edit, true
	}
	return Edit{}, false
}

// SetActiveTab does not validate the id; an unknown id leaves no active tab.
func (s *Store) SetActiveTab(tabID string) {
	s.activeTabID = tabID
}

func (s *Store) SetFiles(files []FileNode) {
	s.files = CloneTree(files)
}

func (s *Store) SetSelectedFile(fileID string) {
	s.selectedFileID = fileID
}

func (s *Store) ActiveTabID() string    { return s.activeTabID }
func (s *Store) SelectedFileID() string { return s.selectedFileID }

func (s *Store) ActiveTab() (Tab, bool) {
	return s.Tab(s.activeTabID)
}

func (s *Store) Tab(id string) (Tab, bool) {
	if id == "" {
		return Tab{}, false
	}
	for _, tab := range s.tabs {
		if tab.ID == id {
			return tab, true
		}
	}
	return Tab{}, false
}

func (s *Store) Tabs() []Tab {
	return append([]Tab(nil), s.tabs...)
}

func (s *Store) Files() []FileNode {
	return CloneTree(s.files)
}

// FindFile walks the tree depth-first for the node with id.
func (s *Store) FindFile(id string) (FileNode, bool) {
	var found FileNode
	ok := false
	Walk(s.files, func(n FileNode) bool {
		if n.ID == id {
			found = n
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// CountLines matches how the editor counts: one more than the newlines.
func CountLines(content string) int {
	return strings.Count(content, "\n") + 1
}

// Walk visits nodes depth-first in order until fn returns false.
func Walk(nodes []FileNode, fn func(FileNode) bool) bool {
	for _, n := range nodes {
		if !fn(n) {
			return false
		}
		if len(n.Children) > 0 && !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}

func CloneTree(nodes []FileNode) []FileNode {
	if nodes == nil {
		return nil
	}
	out := make([]FileNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = CloneTree(n.Children)
	}
	return out
}
