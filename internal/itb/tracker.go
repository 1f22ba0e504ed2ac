package itb

// Tracker holds the context that evolves while a listing is read: the
// current function, the current source location and the annotation lines
// waiting for the next instruction.
type Tracker struct {
	fn      *FunctionContext
	src     *SourceLocation
	pending []string
	dropped int
}

// NewTracker returns a tracker with no function, no source location and an
// empty buffer.
func NewTracker() *Tracker {
	return &Tracker{pending: make([]string, 0, MaxAnnotationLines)}
}

// OnFunction replaces the current function and discards pending annotations.
func (t *Tracker) OnFunction(fn *FunctionContext) {
	t.fn = fn
	t.reset()
}

// OnSource replaces the current source location and discards pending
// annotations.
func (t *Tracker) OnSource(loc *SourceLocation) {
	t.src = loc
	t.reset()
}

// BufferLine queues raw as an annotation for the next instruction.
// Nothing is buffered before the first source location, and the buffer
// never grows past MaxAnnotationLines. It reports whether raw was kept.
func (t *Tracker) BufferLine(raw string) bool {
	if t.src == nil {
		return false
	}
	if len(t.pending) >= MaxAnnotationLines {
		t.dropped++
		return false
	}
	t.pending = append(t.pending, string(AnnotationMarker)+raw)
	return true
}

// TakeAndClear returns the pending annotations, already marked, and empties
// the buffer.
func (t *Tracker) TakeAndClear() []string {
	lines := t.pending
	t.pending = make([]string, 0, MaxAnnotationLines)
	t.dropped = 0
	return lines
}

// Truncated returns how many lines were dropped from the current buffer
// because it was full.
func (t *Tracker) Truncated() int { return t.dropped }

// Function returns the current function, or nil before the first header.
func (t *Tracker) Function() *FunctionContext { return t.fn }

// Source returns the current source location, or nil before the first marker.
func (t *Tracker) Source() *SourceLocation { return t.src }

// Pending returns the number of buffered annotation lines.
func (t *Tracker) Pending() int { return len(t.pending) }

func (t *Tracker) reset() {
	t.pending = t.pending[:0]
	t.dropped = 0
}
