// Package report aggregates instruction table entries per function.
package report

import (
	"fmt"
	"slices"
	"strings"

	"objdump2itb/internal/disasm"
	"objdump2itb/internal/itb"
)

// Function summarizes the entries attributed to one function.
type Function struct {
	Name         string
	Start        uint64 // lowest address seen
	End          uint64 // highest address seen
	Instructions int
	Compressed   int
	Standard     int
	Annotations  int
	Files        []string // source files in order of first appearance
}

// Summary is the per-function breakdown of a table, in order of first
// appearance.
type Summary struct {
	Functions    []Function
	Instructions int
	Compressed   int
	Standard     int
}

// Summarize groups entries by function name. Entries without a function are
// grouped under itb.NoFunction. names, when non-nil, rewrites function
// names for display (for example demangling).
func Summarize(entries []itb.Entry, names func(string) string) Summary {
	var s Summary
	index := make(map[string]int)

	for _, e := range entries {
		name := e.Function
		if name == "" {
			name = itb.NoFunction
		} else if names != nil {
			name = names(name)
		}

		i, ok := index[name]
		if !ok {
			i = len(s.Functions)
			index[name] = i
			s.Functions = append(s.Functions, Function{Name: name, Start: e.Address, End: e.Address})
		}
		f := &s.Functions[i]

		f.Instructions++
		f.Annotations += len(e.Annotations)
		f.Start = min(f.Start, e.Address)
		f.End = max(f.End, e.Address)
		switch e.Inst().Width() {
		case disasm.WidthCompressed:
			f.Compressed++
			s.Compressed++
		case disasm.WidthStandard:
			f.Standard++
			s.Standard++
		}
		if e.File != "" && !slices.Contains(f.Files, e.File) {
			f.Files = append(f.Files, e.File)
		}
		s.Instructions++
	}
	return s
}

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder

	b.WriteString("# Instruction table summary\n\n")
	fmt.Fprintf(&b, "%d instructions in %d functions (%d compressed, %d standard).\n\n",
		s.Instructions, len(s.Functions), s.Compressed, s.Standard)

	if len(s.Functions) == 0 {
		return b.String()
	}

	b.WriteString("| Function | Range | Instructions | Compressed | Standard | Annotations | Sources |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---|\n")
	for _, f := range s.Functions {
		files := "-"
		if len(f.Files) > 0 {
			files = strings.Join(f.Files, ", ")
		}
		fmt.Fprintf(&b, "| `%s` | 0x%x-0x%x | %d | %d | %d | %d | %s |\n",
			escapeCell(f.Name), f.Start, f.End, f.Instructions, f.Compressed, f.Standard, f.Annotations, escapeCell(files))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
