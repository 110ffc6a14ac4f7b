package assistant

import (
	"context"
	"fmt"
	"strings"
)

type Category int

const (
	CategoryFallback Category = iota
	CategoryGreeting
	CategoryScaffold
	CategoryDebug
	CategoryOptimize
	CategoryExplain
)

func (c Category) String() string {
	switch c {
	case CategoryGreeting:
		return "greeting"
	case CategoryScaffold:
		return "scaffold"
	case CategoryDebug:
		return "debug"
	case CategoryOptimize:
		return "optimize"
	case CategoryExplain:
		return "explain"
	default:
		return "fallback"
	}
}

type keywordRule struct {
	category Category
	keywords []string
}

// Keywords are plain substrings of the lowercased text, so "hi" also
// matches "this". Order is precedence: the first rule with a matching keyword wins.
var keywordRules = []keywordRule{
	{CategoryGreeting, []string{"hello", "hi"}},
	{CategoryScaffold, []string{"function", "create"}},
	{CategoryDebug, []string{"bug", "error", "fix"}},
	{CategoryOptimize, []string{"optimize", "improve"}},
	{CategoryExplain, []string{"explain", "what is"}},
}

func Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryFallback
}

// Scripted is the deterministic stand-in backend. It answers the most recent
// user message.
type Scripted struct{}

func NewScripted() Scripted { return Scripted{} }

func (Scripted) Respond(_ context.Context, transcript []Message) (string, error) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == RoleUser {
			return Reply(transcript[i].Content), nil
		}
	}
	return Reply(""), nil
}

func Reply(input string) string {
	switch Classify(input) {
	case CategoryGreeting:
		return "👋 Hello! I'm here to help you code. What would you like to work on?"
	case CategoryScaffold:
		return "I can help you create a function! Here's a template:\n\n" +
			"```typescript\nfunction myFunction(param: string): void {\n  // Your code here\n  console.log(param);\n}\n```\n\n" +
			"Would you like me to customize this for your specific use case?"
	case CategoryDebug:
		return "🐛 Let me help debug that! To assist you better, please:\n\n" +
			"1. Share the error message\n" +
			"2. Show me the relevant code\n" +
			"3. Describe what you expected vs. what happened\n\n" +
			"I'll analyze it and suggest fixes!"
	case CategoryOptimize:
		return "⚡ I can help optimize your code! Here are some general tips:\n\n" +
			"• Use efficient data structures\n" +
			"• Avoid unnecessary loops\n" +
			"• Cache computed values\n" +
			"• Use async/await for I/O operations\n\n" +
			"Share your code and I'll provide specific suggestions!"
	case CategoryExplain:
		return "📚 I'd be happy to explain that concept! Could you be more specific about what you'd like to understand? I can explain:\n\n" +
			"• Programming concepts\n" +
			"• Code patterns\n" +
			"• Best practices\n" +
			"• Framework features"
	default:
		return fmt.Sprintf("I understand you're asking about: \"%s\"\n\n", input) +
			"I'm here to assist with:\n" +
			"• Writing and debugging code\n" +
			"• Explaining concepts\n" +
			"• Code optimization\n" +
			"• Best practices\n" +
			"• Framework guidance\n\n" +
			"How can I help you with this specifically?"
	}
}
