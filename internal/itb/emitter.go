package itb

import (
	"bufio"
	"fmt"
	"io"
)

// Emitter writes framed instruction table entries.
type Emitter struct {
	w *bufio.Writer
}

// NewEmitter returns an emitter writing to w. Output is buffered; call
// Flush when done.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w)}
}

// Emit writes the "#<N>" header, the N annotation lines and the record line.
// Annotation lines must already carry the marker.
func (e *Emitter) Emit(rec Record, annotations []string) error {
	if _, err := fmt.Fprintf(e.w, "#%d\n", len(annotations)); err != nil {
		return err
	}
	for _, a := range annotations {
		if _, err := e.w.WriteString(a); err != nil {
			return err
		}
		if err := e.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if _, err := e.w.WriteString(rec.String()); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// Flush writes any buffered output to the underlying writer.
func (e *Emitter) Flush() error {
	return e.w.Flush()
}
