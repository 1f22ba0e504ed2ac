package itb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"objdump2itb/internal/disasm"
)

// ErrMalformed reports instruction table input that does not follow the
// framing or record layout.
var ErrMalformed = errors.New("malformed instruction table")

// Entry is one decoded instruction table entry. Empty Function, File and
// Line mean the table carried the corresponding sentinel.
type Entry struct {
	Address     uint64   `json:"address" yaml:"address" jsonschema:"title=Address,description=Instruction address"`
	Function    string   `json:"function,omitempty" yaml:"function,omitempty" jsonschema:"title=Function,description=Enclosing function name"`
	File        string   `json:"file,omitempty" yaml:"file,omitempty" jsonschema:"title=Source File,description=Basename of the originating source file"`
	Line        string   `json:"line,omitempty" yaml:"line,omitempty" jsonschema:"title=Source Line,description=Originating source line"`
	Opcode      string   `json:"opcode" yaml:"opcode" jsonschema:"title=Opcode,description=Machine code as 4 or 8 hex digits"`
	Words       int      `json:"words" yaml:"words" jsonschema:"title=Word Count,description=Whitespace separated tokens in the assembly text"`
	Asm         string   `json:"asm" yaml:"asm" jsonschema:"title=Assembly,description=Mnemonic and operands"`
	Annotations []string `json:"annotations,omitempty" yaml:"annotations,omitempty" jsonschema:"title=Annotations,description=Listing text preceding the instruction without the marker"`
}

// Inst returns the instruction part of the entry.
func (e Entry) Inst() disasm.Inst {
	return disasm.Inst{VA: e.Address, Code: e.Opcode, Text: e.Asm}
}

// Record rebuilds the record the entry was emitted from. The function
// address is not part of the table and is left zero.
func (e Entry) Record() Record {
	rec := Record{Inst: e.Inst()}
	if e.Function != "" {
		rec.Function = &FunctionContext{Name: e.Function}
	}
	if e.File != "" {
		rec.Source = &SourceLocation{File: e.File, Line: e.Line}
	}
	return rec
}

// Reader decodes an instruction table.
type Reader struct {
	r    *bufio.Reader
	line int
}

// NewReader returns a reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next entry, or io.EOF at a clean end of input.
func (rd *Reader) Next() (Entry, error) {
	var e Entry

	header, err := rd.readLine()
	if err != nil {
		return e, err
	}
	if len(header) < 2 || header[0] != AnnotationMarker {
		return e, rd.malformed("expected #<count> header, got %q", header)
	}
	n, err := strconv.Atoi(header[1:])
	if err != nil || n < 0 || n > MaxAnnotationLines {
		return e, rd.malformed("bad annotation count %q", header[1:])
	}

	for i := 0; i < n; i++ {
		a, err := rd.readLine()
		if err != nil {
			return e, rd.truncated(err)
		}
		if len(a) == 0 || a[0] != AnnotationMarker {
			return e, rd.malformed("annotation line missing %q marker", AnnotationMarker)
		}
		e.Annotations = append(e.Annotations, a[1:])
	}

	rec, err := rd.readLine()
	if err != nil {
		return e, rd.truncated(err)
	}
	if err := rd.parseRecord(rec, &e); err != nil {
		return e, err
	}
	return e, nil
}

// ReadAll decodes every remaining entry.
func (rd *Reader) ReadAll() ([]Entry, error) {
	var entries []Entry
	for {
		e, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}

func (rd *Reader) parseRecord(s string, e *Entry) error {
	f := strings.SplitN(s, " ", 7)
	if len(f) != 7 {
		return rd.malformed("record has %d fields, want 7", len(f))
	}

	addr, err := strconv.ParseUint(f[0], 10, 64)
	if err != nil {
		return rd.malformed("bad address %q", f[0])
	}
	words, err := strconv.Atoi(f[5])
	if err != nil {
		return rd.malformed("bad word count %q", f[5])
	}

	e.Address = addr
	if f[1] != NoFunction {
		e.Function = f[1]
	}
	if f[2] != NoSourceFile {
		e.File = f[2]
		e.Line = f[3]
	}
	e.Opcode = f[4]
	e.Words = words
	e.Asm = f[6]
	return nil
}

func (rd *Reader) readLine() (string, error) {
	for {
		s, err := rd.r.ReadString('\n')
		if len(s) == 0 && err != nil {
			return "", err
		}
		rd.line++
		s = strings.TrimRight(s, "\r\n")
		if s == "" && err == nil {
			continue
		}
		if s == "" {
			return "", err
		}
		return s, nil
	}
}

func (rd *Reader) malformed(format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", rd.line, ErrMalformed, fmt.Sprintf(format, args...))
}

func (rd *Reader) truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return rd.malformed("unexpected end of input")
	}
	return err
}
