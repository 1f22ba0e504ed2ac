// Package itb converts objdump listings into the instruction table (itb)
// format and reads that format back.
//
// An instruction table is a text stream with one framed entry per machine
// instruction:
//
//	#<N>
//	#<annotation line 1>
//	...
//	#<annotation line N>
//	<address> <function> <source_file> <source_line> <opcode> <word_count> <asm_text>
//
// The header count lets a reader consume exactly N free-form annotation
// lines before the fixed-shape record line without any escaping.
package itb

import (
	"fmt"

	"objdump2itb/internal/disasm"
)

// Sentinels printed for context that was never established in the listing.
const (
	NoFunction   = "None"
	NoSourceFile = "None"
	NoSourceLine = "0"
)

// AnnotationMarker prefixes every annotation line in the output.
const AnnotationMarker = '#'

// MaxAnnotationLines caps the annotation buffer. Lines past the cap are
// dropped so long stretches without a source marker (hex dumps) stay bounded.
const MaxAnnotationLines = 10

// FunctionContext is the function named by the most recent header line.
type FunctionContext struct {
	Addr uint64
	Name string
}

// SourceLocation is the file and line named by the most recent source marker.
// File holds the basename only; Line is kept as printed.
type SourceLocation struct {
	File string
	Line string
}

// Record is one instruction together with the context it appeared in.
// Function and Source are nil when the listing never established them.
type Record struct {
	disasm.Inst
	Function *FunctionContext
	Source   *SourceLocation
}

// FunctionName returns the function name or NoFunction.
func (r Record) FunctionName() string {
	if r.Function == nil {
		return NoFunction
	}
	return r.Function.Name
}

// SourceFile returns the source basename or NoSourceFile.
func (r Record) SourceFile() string {
	if r.Source == nil {
		return NoSourceFile
	}
	return r.Source.File
}

// SourceLine returns the source line or NoSourceLine.
func (r Record) SourceLine() string {
	if r.Source == nil {
		return NoSourceLine
	}
	return r.Source.Line
}

// String renders the record line without a trailing newline.
func (r Record) String() string {
	return fmt.Sprintf("%d %s %s %s %s %d %s",
		r.VA, r.FunctionName(), r.SourceFile(), r.SourceLine(), r.Code, r.Words(), r.Text)
}
