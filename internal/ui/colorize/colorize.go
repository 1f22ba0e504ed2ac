package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"objdump2itb/internal/config"
)

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	// objdump prints GNU as syntax
	candidates := []string{"gas", "GAS", "armasm", "nasm"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	candidates := []string{"itb-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Disabled reports whether colors were turned off through the environment.
func Disabled() bool {
	return os.Getenv(config.EnvNoColor) != ""
}

// ColorizeAssembly highlights assembly text. It returns the input unchanged
// when colors are disabled or no lexer is available.
func ColorizeAssembly(code string) (string, error) {
	if Disabled() {
		return code, nil
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return code, err
	}

	// Lexers terminate the input with a newline; drop it again
	out := buf.String()
	if !strings.HasSuffix(code, "\n") {
		if i := strings.LastIndex(out, "\n"); i >= 0 {
			out = out[:i] + out[i+1:]
		}
	}
	return out, nil
}

// ColorizeInstruction highlights one instruction's assembly text, falling
// back to the plain text on any lexer error.
func ColorizeInstruction(text string) string {
	colored, err := ColorizeAssembly(text)
	if err != nil {
		return text
	}
	return colored
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
