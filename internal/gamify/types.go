package gamify

const (
	XPPerLevel        = 1000
	XPPerLine         = 10
	XPPerAssistantUse = 50
)

// Level is derived from xp on every read and never stored.
func Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress,omitempty"`
	MaxProgress int    `json:"maxProgress,omitempty"`
}

type Stats struct {
	XP                 int           `json:"xp"`
	LinesOfCode        int           `json:"linesOfCode"`
	FilesEdited        int           `json:"filesEdited"`
	AssistantExchanges int           `json:"assistantExchanges"`
	Achievements       []Achievement `json:"achievements"`
}

func (s Stats) Level() int { return Level(s.XP) }

// XPIntoLevel is the progress inside the current level.
func (s Stats) XPIntoLevel() int {
	if s.XP < 0 {
		return 0
	}
	return s.XP % XPPerLevel
}

type Award struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

const (
	ReasonManual    = "manual"
	ReasonLines     = "lines_of_code"
	ReasonAssistant = "assistant_exchange"
)

// Result lists what a mutation produced so the caller can publish events.
type Result struct {
	Awards   []Award
	Unlocked []Achievement
}

func (r *Result) merge(other Result) {
	r.Awards = append(r.Awards, other.Awards...)
	r.Unlocked = append(r.Unlocked, other.Unlocked...)
}
