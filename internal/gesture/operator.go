// Package gesture implements the modal box-select operator and the keymap
// that starts it.
package gesture

// EventType names an input source.
type EventType string

const (
	LeftMouse  EventType = "LEFTMOUSE"
	RightMouse EventType = "RIGHTMOUSE"
	MouseMove  EventType = "MOUSEMOVE"
	Esc        EventType = "ESC"
	KeyB       EventType = "B"
)

// EventValue is the transition carried by an event.
type EventValue string

const (
	Press   EventValue = "PRESS"
	Release EventValue = "RELEASE"
)

// Event is a pointer or key event in region (pixel) coordinates.
type Event struct {
	Type  EventType  `json:"type"`
	Value EventValue `json:"value,omitempty"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Shift bool       `json:"shift,omitempty"`
	Ctrl  bool       `json:"ctrl,omitempty"`
}

// Position is a region coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Status is returned from every operator step.
type Status string

const (
	StatusRunning     Status = "running"
	StatusPassThrough Status = "passThrough"
	StatusFinished    Status = "finished"
	StatusCancelled   Status = "cancelled"
)

// State is the operator's modal state.
type State int

const (
	StateWait State = iota
	StateDrag
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateWait:
		return "wait"
	case StateDrag:
		return "drag"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the finished drag.
type Result struct {
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Extend   bool     `json:"extend"`
	Deselect bool     `json:"deselect"`
}

// Operator tracks one box-select gesture from invocation to release.
type Operator struct {
	waitForInput bool
	extend       bool
	selectMouse  EventType

	state State
	start Position
	end   Position
	shift bool
}

// NewOperator creates an operator for a keymap binding. selectMouse is the
// user's select button preference (LeftMouse or RightMouse).
func NewOperator(b Binding, selectMouse EventType) *Operator {
	if selectMouse != RightMouse {
		selectMouse = LeftMouse
	}
	return &Operator{
		waitForInput: b.WaitForInput,
		extend:       b.Extend,
		selectMouse:  selectMouse,
	}
}

// Invoke starts the operator. An event from the non-select mouse button is
// rejected and passed through.
func (o *Operator) Invoke(ev Event) Status {
	if ev.Type == o.otherMouse() {
		o.state = StateCancelled
		return StatusCancelled
	}

	if o.waitForInput {
		o.state = StateWait
	} else {
		o.state = StateDrag
		o.start = Position{X: ev.X, Y: ev.Y}
		o.end = o.start
	}
	return StatusRunning
}

// Modal feeds one event to a running operator.
func (o *Operator) Modal(ev Event) Status {
	switch o.state {
	case StateFinished:
		return StatusFinished
	case StateCancelled:
		return StatusCancelled
	}

	button := o.selectMouse
	if o.waitForInput {
		button = LeftMouse
	}

	switch {
	case ev.Type == button:
		if o.state == StateWait && !ev.Ctrl && ev.Value == Press {
			o.start = Position{X: ev.X, Y: ev.Y}
			o.end = o.start
			o.state = StateDrag
		}
		if ev.Value == Release {
			if o.state != StateDrag {
				o.state = StateCancelled
				return StatusCancelled
			}
			o.end = Position{X: ev.X, Y: ev.Y}
			o.shift = ev.Shift
			o.state = StateFinished
			return StatusFinished
		}
	case ev.Type == MouseMove:
		if o.state == StateDrag {
			o.end = Position{X: ev.X, Y: ev.Y}
		}
	case ev.Value == Press && (ev.Type == RightMouse || ev.Type == Esc):
		o.state = StateCancelled
		return StatusCancelled
	}
	return StatusPassThrough
}

// State returns the current modal state.
func (o *Operator) State() State {
	return o.state
}

// Current returns the drag corners so far. ok is false until dragging starts.
func (o *Operator) Current() (start, end Position, ok bool) {
	if o.state != StateDrag && o.state != StateFinished {
		return Position{}, Position{}, false
	}
	return o.start, o.end, true
}

// Result returns the finished gesture.
func (o *Operator) Result() (Result, bool) {
	if o.state != StateFinished {
		return Result{}, false
	}
	return Result{
		Start:    o.start,
		End:      o.end,
		Extend:   o.extend,
		Deselect: o.shift,
	}, true
}

func (o *Operator) otherMouse() EventType {
	if o.selectMouse == LeftMouse {
		return RightMouse
	}
	return LeftMouse
}
