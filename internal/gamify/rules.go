package gamify

// Rule evaluates one achievement. Progress is a pure function of the stats;
// the achievement unlocks once Progress reaches Target.
type Rule struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Target      int
	// TrackProgress exposes progress/maxProgress in snapshots.
	TrackProgress bool
	Progress      func(Stats) int
}

func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "first-line",
			Title:       "First Steps",
			Description: "Write your first line of code",
			Icon:        "✍️",
			Target:      1,
			Progress:    func(s Stats) int { return s.LinesOfCode },
		},
		{
			ID:            "speed-demon",
			Title:         "Speed Demon",
			Description:   "Write 100 lines in one session",
			Icon:          "⚡",
			Target:        100,
			TrackProgress: true,
			Progress:      func(s Stats) int { return s.LinesOfCode },
		},
		{
			ID:            "ai-enthusiast",
			Title:         "AI Enthusiast",
			Description:   "Use AI assistance 10 times",
			Icon:          "🤖",
			Target:        10,
			TrackProgress: true,
			Progress:      func(s Stats) int { return s.AssistantExchanges },
		},
		{
			// No collaboration surface exists, so this stays locked.
			ID:          "collaboration-king",
			Title:       "Collaboration King",
			Description: "Collaborate with a teammate",
			Icon:        "👥",
			Target:      1,
			Progress:    func(Stats) int { return 0 },
		},
	}
}

func (r Rule) achievement() Achievement {
	a := Achievement{ID: r.ID, Title: r.Title, Description: r.Description, Icon: r.Icon}
	if r.TrackProgress {
		a.MaxProgress = r.Target
	}
	return a
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
