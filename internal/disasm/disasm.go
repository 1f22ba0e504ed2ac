// Package disasm defines the instruction representation shared by the
// listing converter and the instruction-table tools.
package disasm

import "strings"

// Width is the encoding width of an instruction, derived from the number of
// hex digits the disassembler printed for it.
type Width int

const (
	WidthUnknown    Width = iota
	WidthCompressed       // 16-bit encoding, 4 hex digits
	WidthStandard         // 32-bit encoding, 8 hex digits
)

func (w Width) String() string {
	switch w {
	case WidthCompressed:
		return "compressed"
	case WidthStandard:
		return "standard"
	default:
		return "unknown"
	}
}

// Inst is a single instruction as printed by the disassembler.
// The opcode and text are opaque; nothing here decodes them.
type Inst struct {
	VA   uint64 // address of instruction
	Code string // machine code hex digits, no prefix, no whitespace
	Text string // mnemonic and operands, tabs folded to spaces
}

// Width classifies the instruction purely by the length of Code.
func (i Inst) Width() Width {
	switch len(i.Code) {
	case 4:
		return WidthCompressed
	case 8:
		return WidthStandard
	default:
		return WidthUnknown
	}
}

// Words returns the number of whitespace-separated tokens in Text.
func (i Inst) Words() int {
	return len(strings.Fields(i.Text))
}

// Op returns the mnemonic in lowercase.
func (i Inst) Op() string {
	f := strings.Fields(i.Text)
	if len(f) == 0 {
		return ""
	}
	return strings.ToLower(f[0])
}

// NormalizeText folds tabs to spaces and trims the ends. Inner runs of
// spaces are preserved so output stays byte-compatible with existing tables.
func NormalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\t", " "))
}

// Stream is a linear sequence of instructions.
type Stream []Inst
