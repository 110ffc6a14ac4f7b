package console

type Kind string

const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
	KindError  Kind = "error"
)

type Line struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
}

type Stream int

const (
	Stdout Stream = iota
	Stderr
)

type Result struct {
	Output     string
	Stream     Stream
	ExitStatus int
	// Clear asks the interpreter to truncate the buffer instead of printing.
	Clear bool
	// Skip means nothing should be recorded at all.
	Skip bool
}

const (
	ProductName    = "Universal Auto Scripter IDE"
	ProductVersion = "1.0.0"
)

func Banner() []string {
	return []string{
		ProductName + " Terminal v" + ProductVersion,
		`Type "help" for available commands`,
	}
}
