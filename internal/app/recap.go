package app

import (
	"context"
	"fmt"
	"strings"

	"autoscripter/internal/gamify"
	"autoscripter/internal/state"
)

// JournalRecap summarizes every session recorded in the journal at path.
func JournalRecap(ctx context.Context, path string) (string, error) {
	journal, err := openJournal(path)
	if err != nil {
		return "", err
	}
	defer journal.Close()
	sum, err := journal.Summary(ctx, "")
	if err != nil {
		return "", fmt.Errorf("journal summary: %w", err)
	}
	recent, err := journal.RecentAwards(ctx, "", 10)
	if err != nil {
		return "", fmt.Errorf("journal awards: %w", err)
	}
	return buildRecapText("All sessions", sum, recent), nil
}

// buildRecapText renders the journal summary shown after a session ends and
// by the stats command. recent is newest first.
func buildRecapText(title string, sum state.Summary, recent []state.Award) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if sum.Sessions > 1 {
		b.WriteString(fmt.Sprintf("Sessions: %d\n", sum.Sessions))
	}
	b.WriteString(fmt.Sprintf("XP earned: %d (level %d)\n", sum.TotalXP, gamify.Level(sum.TotalXP)))
	b.WriteString(fmt.Sprintf("Awards: %d  Achievements: %d\n", sum.Awards, sum.Unlocks))

	if sum.Commands > 0 {
		ok := sum.Commands - sum.Failures
		b.WriteString(fmt.Sprintf("Terminal: %d commands, %d ok, %d failed\n", sum.Commands, ok, sum.Failures))
		if hint := terminalCoaching(sum); hint != "" {
			b.WriteString("- " + hint + "\n")
		}
	}

	if len(recent) > 0 {
		b.WriteString("\nRecent XP\n")
		for _, a := range recent {
			b.WriteString(fmt.Sprintf("- +%d %s (%s)\n", a.Amount, reasonLabel(a.Reason), a.TS.Format("15:04:05")))
		}
	}

	if sum.Awards == 0 && sum.Commands == 0 {
		b.WriteString("\nNothing recorded yet. Edit a file or ask the assistant to start earning XP.\n")
	}
	return strings.TrimSpace(b.String())
}

func terminalCoaching(sum state.Summary) string {
	if sum.Commands == 0 {
		return ""
	}
	if sum.Failures*2 > sum.Commands {
		return `Most commands failed. Run "help" to list what the terminal understands.`
	}
	if sum.Failures == 0 && sum.Commands >= 5 {
		return "Clean run, no failed commands."
	}
	return ""
}

func reasonLabel(reason string) string {
	switch reason {
	case gamify.ReasonLines:
		return "lines of code"
	case gamify.ReasonAssistant:
		return "assistant exchange"
	case gamify.ReasonManual, "":
		return "bonus"
	default:
		return reason
	}
}
