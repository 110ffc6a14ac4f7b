package gamify

import "math"

type Engine struct {
	rules       []Rule
	stats       Stats
	editedPaths map[string]struct{}
}

func NewEngine(rules []Rule) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	e := &Engine{rules: rules, editedPaths: map[string]struct{}{}}
	e.stats.Achievements = make([]Achievement, 0, len(rules))
	for _, r := range rules {
		e.stats.Achievements = append(e.stats.Achievements, r.achievement())
	}
	return e
}

func (e *Engine) Stats() Stats {
	out := e.stats
	out.Achievements = append([]Achievement(nil), e.stats.Achievements...)
	return out
}

// AddXP ignores non-positive amounts so xp stays monotonic. XP saturates at
// math.MaxInt instead of wrapping.
func (e *Engine) AddXP(amount int, reason string) Result {
	if amount <= 0 {
		return Result{}
	}
	e.stats.XP = saturatingAdd(e.stats.XP, amount)
	res := Result{Awards: []Award{{Amount: amount, Reason: reason}}}
	res.merge(e.evaluate())
	return res
}

// IncrementLinesOfCode accumulates delta and awards XPPerLine for each line.
func (e *Engine) IncrementLinesOfCode(delta int) Result {
	if delta <= 0 {
		return Result{}
	}
	e.stats.LinesOfCode = saturatingAdd(e.stats.LinesOfCode, delta)
	award := math.MaxInt
	if delta <= math.MaxInt/XPPerLine {
		award = delta * XPPerLine
	}
	var res Result
	res.merge(e.evaluate())
	res.merge(e.AddXP(award, ReasonLines))
	return res
}

// RecordFileEdit counts distinct edited paths.
func (e *Engine) RecordFileEdit(path string) Result {
	if path == "" {
		return Result{}
	}
	if _, seen := e.editedPaths[path]; seen {
		return Result{}
	}
	e.editedPaths[path] = struct{}{}
	e.stats.FilesEdited++
	return e.evaluate()
}

// RecordAssistantExchange counts a completed exchange and awards its XP.
func (e *Engine) RecordAssistantExchange() Result {
	e.stats.AssistantExchanges++
	var res Result
	res.merge(e.evaluate())
	res.merge(e.AddXP(XPPerAssistantUse, ReasonAssistant))
	return res
}

// evaluate refreshes progress and flips achievements from locked to
// unlocked; it never locks an achievement again.
func (e *Engine) evaluate() Result {
	var res Result
	for i, r := range e.rules {
		a := &e.stats.Achievements[i]
		value := 0
		if r.Progress != nil {
			value = r.Progress(e.stats)
		}
		if r.TrackProgress {
			a.Progress = clamp(value, 0, a.MaxProgress)
		}
		if a.Unlocked || r.Progress == nil {
			continue
		}
		if value >= r.Target {
			a.Unlocked = true
			res.Unlocked = append(res.Unlocked, *a)
		}
	}
	return res
}

func saturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
