package console

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const helpText = `Available commands:
  help     - Show this help message
  clear    - Clear terminal
  about    - About this IDE
  whoami   - Display current user
  date     - Show current date and time
  echo     - Echo text back`

const aboutText = ProductName + `
Version: ` + ProductVersion + `
An AI-powered development environment
Built with Go, Bubble Tea, and Lip Gloss`

const Identity = "developer@autoscripter-ide"

const exitNotFound = 127

// Builtins implements the closed command set. Matching is exact after
// trimming and lowercasing, except echo which matches by prefix.
type Builtins struct {
	Now func() time.Time
}

func NewBuiltins(now func() time.Time) Builtins {
	if now == nil {
		now = time.Now
	}
	return Builtins{Now: now}
}

func (b Builtins) Exec(_ context.Context, command string) Result {
	trimmed := strings.TrimSpace(command)
	cmd := strings.ToLower(trimmed)

	switch cmd {
	case "":
		return Result{Skip: true}
	case "clear":
		return Result{Clear: true}
	case "help":
		return Result{Output: helpText}
	case "about":
		return Result{Output: aboutText}
	case "whoami":
		return Result{Output: Identity}
	case "date":
		return Result{Output: b.Now().Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")}
	}
	if strings.HasPrefix(cmd, "echo ") {
		return Result{Output: trimmed[len("echo "):]}
	}
	return Result{
		Output:     fmt.Sprintf(`Command not found: %s. Type "help" for available commands.`, cmd),
		Stream:     Stderr,
		ExitStatus: exitNotFound,
	}
}
