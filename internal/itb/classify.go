package itb

import (
	"regexp"
	"strconv"
	"strings"

	"objdump2itb/internal/disasm"
)

// Kind is the structural category of a listing line.
type Kind int

const (
	KindBlank Kind = iota
	KindFunction
	KindSource
	KindInstruction
	KindUnstructured
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindFunction:
		return "function"
	case KindSource:
		return "source"
	case KindInstruction:
		return "instruction"
	case KindUnstructured:
		return "unstructured"
	default:
		return "unknown"
	}
}

var (
	// 00000256 <end_handler_incr_mepc>:
	funcRE = regexp.MustCompile(`^([0-9a-f]{8}) <(\S*)>:`)

	// /work/core-v-verif/tests/programs/custom/debug_test_trigger/debugger.S:47
	sourceRE = regexp.MustCompile(`^/\S+/([^/\s]+):([0-9]+)$`)

	// 264:	00a31363          	bne	t1,a0,26a <end_handler_incr_mepc2>
	instRE = regexp.MustCompile(`^([0-9a-f]{1,8}):\t*([0-9a-f]{4}(?:[0-9a-f]{4})?)\s{2,}([a-z].*)$`)
)

// Line is a classified listing line. Exactly one of Function, Source or
// Inst is meaningful, selected by Kind.
type Line struct {
	Kind     Kind
	Raw      string // line as read, newline removed
	Function *FunctionContext
	Source   *SourceLocation
	Inst     disasm.Inst
}

type recognizer struct {
	kind  Kind
	re    *regexp.Regexp
	build func(l *Line, m []string) bool
}

// recognizers are tried in order and the first match wins.
var recognizers = [...]recognizer{
	{KindFunction, funcRE, buildFunction},
	{KindSource, sourceRE, buildSource},
	{KindInstruction, instRE, buildInstruction},
}

// Priority returns the order in which structural recognizers are tried.
// Lines matching none of them are KindUnstructured.
func Priority() []Kind {
	kinds := make([]Kind, len(recognizers))
	for i, r := range recognizers {
		kinds[i] = r.kind
	}
	return kinds
}

// Classify categorizes one raw listing line. Matching is done on the
// trimmed text; Raw keeps the original so annotations retain indentation.
func Classify(raw string) Line {
	l := Line{Kind: KindBlank, Raw: raw}
	text := strings.TrimSpace(raw)
	if text == "" {
		return l
	}

	for _, r := range recognizers {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if r.build(&l, m) {
			l.Kind = r.kind
			return l
		}
	}

	l.Kind = KindUnstructured
	return l
}

func buildFunction(l *Line, m []string) bool {
	addr, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return false
	}
	l.Function = &FunctionContext{Addr: addr, Name: m[2]}
	return true
}

func buildSource(l *Line, m []string) bool {
	l.Source = &SourceLocation{File: m[1], Line: m[2]}
	return true
}

func buildInstruction(l *Line, m []string) bool {
	addr, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return false
	}
	l.Inst = disasm.Inst{
		VA:   addr,
		Code: strings.ReplaceAll(m[2], " ", ""),
		Text: disasm.NormalizeText(m[3]),
	}
	return true
}
