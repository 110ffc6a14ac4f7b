package console

// Interpreter owns the terminal buffer. Output for a command is delivered
// later through Deliver; Clear invalidates every pending delivery.
type Interpreter struct {
	newID   func() string
	lines   []Line
	history []string
	gen     uint64
}

// Pending is a deferred output line waiting for its delay to elapse.
type Pending struct {
	Gen  uint64
	Line Line
}

func NewInterpreter(newID func() string, banner []string) *Interpreter {
	in := &Interpreter{newID: newID}
	for _, text := range banner {
		in.lines = append(in.lines, Line{ID: newID(), Kind: KindOutput, Content: text})
	}
	return in
}

// Submit records the command given the backend's result. It returns the
// output line to deliver later, if any.
func (in *Interpreter) Submit(command string, res Result) (Pending, bool) {
	if res.Skip {
		return Pending{}, false
	}
	in.history = append(in.history, command)
	if res.Clear {
		in.Clear()
		return Pending{}, false
	}
	in.lines = append(in.lines, Line{ID: in.newID(), Kind: KindInput, Content: "$ " + command})
	kind := KindOutput
	if res.Stream == Stderr {
		kind = KindError
	}
	return Pending{
		Gen:  in.gen,
		Line: Line{ID: in.newID(), Kind: kind, Content: res.Output},
	}, true
}

// Deliver appends a deferred line unless a clear happened since Submit.
func (in *Interpreter) Deliver(p Pending) bool {
	if p.Gen != in.gen {
		return false
	}
	in.lines = append(in.lines, p.Line)
	return true
}

func (in *Interpreter) Clear() {
	in.lines = nil
	in.gen++
}

func (in *Interpreter) Lines() []Line {
	return append([]Line(nil), in.lines...)
}

func (in *Interpreter) History() []string {
	return append([]string(nil), in.history...)
}
