package itb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ianlancetaylor/demangle"
)

// Stats counts what a conversion saw.
type Stats struct {
	Lines        int // non-blank input lines
	Functions    int
	Sources      int
	Instructions int
	Annotations  int // annotation lines emitted
	Unclaimed    int // unstructured lines seen before any source marker
	Dropped      int // annotation lines lost to the buffer cap
}

// Converter turns an objdump listing into an instruction table.
// A Converter is single use and not safe for concurrent use.
type Converter struct {
	tracker *Tracker
	emitter *Emitter
	logger  *log.Logger
	stats   Stats
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConverter returns a converter writing to w.
func NewConverter(w io.Writer, opts ...Option) *Converter {
	c := &Converter{
		tracker: NewTracker(),
		emitter: NewEmitter(w),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert reads the listing from r and writes the table to w.
func Convert(r io.Reader, w io.Writer, opts ...Option) (Stats, error) {
	return NewConverter(w, opts...).Run(r)
}

// Run consumes r line by line until EOF. Output is flushed on every return
// path; only read and write failures are reported as errors.
func (c *Converter) Run(r io.Reader) (stats Stats, err error) {
	defer func() {
		if ferr := c.emitter.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("write instruction table: %w", ferr)
		}
		stats = c.stats
	}()

	br := bufio.NewReader(r)
	for {
		raw, rerr := br.ReadString('\n')
		if len(raw) > 0 {
			if herr := c.HandleLine(strings.TrimRight(raw, "\r\n")); herr != nil {
				return c.stats, herr
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return c.stats, fmt.Errorf("read listing: %w", rerr)
		}
	}

	c.logger.Debug("Conversion finished",
		"lines", c.stats.Lines,
		"functions", c.stats.Functions,
		"instructions", c.stats.Instructions,
		"annotations", c.stats.Annotations,
		"dropped", c.stats.Dropped)
	return c.stats, nil
}

// HandleLine classifies one line and applies it to the tracked context,
// emitting a table entry for instruction lines.
func (c *Converter) HandleLine(raw string) error {
	l := Classify(raw)
	if l.Kind != KindBlank {
		c.stats.Lines++
	}

	switch l.Kind {
	case KindBlank:
	case KindFunction:
		c.stats.Functions++
		c.tracker.OnFunction(l.Function)
		if d := demangle.Filter(l.Function.Name, demangle.NoClones); d != l.Function.Name {
			c.logger.Debug("Function", "addr", fmt.Sprintf("%08x", l.Function.Addr), "name", l.Function.Name, "demangled", d)
		} else {
			c.logger.Debug("Function", "addr", fmt.Sprintf("%08x", l.Function.Addr), "name", l.Function.Name)
		}
	case KindSource:
		c.stats.Sources++
		c.tracker.OnSource(l.Source)
		c.logger.Debug("Source", "file", l.Source.File, "line", l.Source.Line)
	case KindInstruction:
		return c.emit(l)
	case KindUnstructured:
		if c.tracker.Source() == nil {
			c.stats.Unclaimed++
		} else if !c.tracker.BufferLine(l.Raw) {
			c.stats.Dropped++
		}
		c.logger.Debug("Unmatched, treating as source line", "line", strings.TrimSpace(l.Raw))
	}
	return nil
}

func (c *Converter) emit(l Line) error {
	if n := c.tracker.Truncated(); n > 0 {
		c.logger.Debug("Annotation buffer truncated", "addr", fmt.Sprintf("%x", l.Inst.VA), "dropped", n)
	}
	rec := Record{
		Inst:     l.Inst,
		Function: c.tracker.Function(),
		Source:   c.tracker.Source(),
	}
	annotations := c.tracker.TakeAndClear()
	if err := c.emitter.Emit(rec, annotations); err != nil {
		return fmt.Errorf("write instruction table: %w", err)
	}
	c.stats.Instructions++
	c.stats.Annotations += len(annotations)

	c.logger.Debug("Instruction",
		"addr", fmt.Sprintf("%x", rec.VA),
		"func", rec.FunctionName(),
		"file", rec.SourceFile(),
		"line", rec.SourceLine(),
		"mcode", rec.Code,
		"asm", rec.Text)
	return nil
}
