package settings

import (
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeDark    Theme = "dark"
	ThemeLight   Theme = "light"
	ThemeMonokai Theme = "monokai"
	ThemeNord    Theme = "nord"
)

// ParseTheme is used at input boundaries (config, web). The store itself
// accepts any value.
func ParseTheme(raw string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	case ThemeMonokai:
		return ThemeMonokai, nil
	case ThemeNord:
		return ThemeNord, nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

type Settings struct {
	Theme    Theme `json:"theme" yaml:"theme"`
	FontSize int   `json:"fontSize" yaml:"font_size"`
	TabSize  int   `json:"tabSize" yaml:"tab_size"`
	AutoSave bool  `json:"autoSave" yaml:"auto_save"`
	Minimap  bool  `json:"minimap" yaml:"minimap"`
}

func Defaults() Settings {
	return Settings{
		Theme:    ThemeDark,
		FontSize: 14,
		TabSize:  2,
		AutoSave: true,
		Minimap:  true,
	}
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Theme    *Theme `json:"theme,omitempty"`
	FontSize *int   `json:"fontSize,omitempty"`
	TabSize  *int   `json:"tabSize,omitempty"`
	AutoSave *bool  `json:"autoSave,omitempty"`
	Minimap  *bool  `json:"minimap,omitempty"`
}

// Presentation is the process-wide palette flag the view layer applies.
type Presentation struct {
	Theme Theme `json:"theme"`
	Dark  bool  `json:"dark"`
}

func PresentationFor(theme Theme) Presentation {
	return Presentation{Theme: theme, Dark: theme == ThemeDark}
}

type Store struct {
	current Settings
}

func NewStore(initial Settings) *Store {
	return &Store{current: initial}
}

func (s *Store) Get() Settings { return s.current }

// Update applies every non-nil field of p. When the theme changes the new
// presentation is returned with changed=true.
func (s *Store) Update(p Patch) (Presentation, bool) {
	before := s.current.Theme
	if p.Theme != nil {
		s.current.Theme = *p.Theme
	}
	if p.FontSize != nil {
		s.current.FontSize = *p.FontSize
	}
	if p.TabSize != nil {
		s.current.TabSize = *p.TabSize
	}
	if p.AutoSave != nil {
		s.current.AutoSave = *p.AutoSave
	}
	if p.Minimap != nil {
		s.current.Minimap = *p.Minimap
	}
	if s.current.Theme == before {
		return Presentation{}, false
	}
	return PresentationFor(s.current.Theme), true
}

// SetTheme always reports the presentation so the view layer re-applies it,
// matching the explicit theme toggle.
func (s *Store) SetTheme(theme Theme) Presentation {
	s.current.Theme = theme
	return PresentationFor(theme)
}
