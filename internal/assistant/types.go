package assistant

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const WelcomeText = "👋 Hi! I'm your AI coding assistant. I can help you:\n\n" +
	"• Write and debug code\n" +
	"• Explain complex concepts\n" +
	"• Suggest optimizations\n" +
	"• Generate boilerplate code\n\n" +
	"What would you like to work on today?"
