package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/ianlancetaylor/demangle"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"objdump2itb/internal/itb"
	"objdump2itb/internal/objdump2itb/styles"
	"objdump2itb/internal/report"
	"objdump2itb/internal/ui/colorize"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
)

type showOptions struct {
	format   string
	demangle bool
	tui      bool
	follow   bool
	color    bool
	width    int
}

func init() {
	showCmd.Flags().StringP("format", "f", formatText, "Output format: text, json, yaml or markdown")
	showCmd.Flags().Bool("demangle", false, "Demangle C++ function names")
	showCmd.Flags().BoolP("tui", "t", false, "Browse the listing in a scrollable view")
	showCmd.Flags().BoolP("follow", "F", false, "Keep reading as the table file grows")

	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <itb|->",
	Short: "Display an instruction table",
	Long: `Show reads an instruction table produced by objdump2itb and renders it as a
highlighted listing, as JSON or YAML entries, or as a per-function summary.`,
	Example: `
# Highlighted listing
objdump2itb show program.itb

# Per-function summary with demangled names
objdump2itb show --format markdown --demangle program.itb

# Watch a table while it is being written
objdump2itb show --follow program.itb
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		lg := newLogger(cmd)
		defer lg.Close()

		opts := showOptions{width: 100}
		opts.format, _ = cmd.Flags().GetString("format")
		opts.demangle, _ = cmd.Flags().GetBool("demangle")
		opts.tui, _ = cmd.Flags().GetBool("tui")
		opts.follow, _ = cmd.Flags().GetBool("follow")

		interactive := term.IsTerminal(os.Stdout.Fd())
		opts.color = interactive && !colorize.Disabled()
		if interactive {
			if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
				opts.width = w
			}
		}

		lg.Debug("Showing table", "input", args[0], "format", opts.format, "tui", opts.tui, "follow", opts.follow)
		return runShow(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout(), opts)
	},
}

func runShow(ctx context.Context, path string, stdin io.Reader, w io.Writer, opts showOptions) error {
	switch opts.format {
	case formatText, formatJSON, formatYAML, formatMarkdown:
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	if opts.follow {
		if path == "-" {
			return errors.New("--follow needs a file, not stdin")
		}
		if opts.tui || opts.format == formatMarkdown {
			return errors.New("--follow streams entries and cannot be combined with --tui or markdown")
		}
		emit := entryWriter(w, opts)
		return followTable(ctx, path, func(e itb.Entry) error {
			return emit(prepareEntry(e, opts))
		})
	}

	in, err := openInput(path, stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	entries, err := itb.NewReader(in).ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for i := range entries {
		entries[i] = prepareEntry(entries[i], opts)
	}

	if opts.tui {
		return browse(ctx, path, entries, opts)
	}

	switch opts.format {
	case formatMarkdown:
		return writeSummary(w, entries, opts)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []itb.Entry{}
		}
		return enc.Encode(entries)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		l := newListing(w, opts.color)
		for _, e := range entries {
			if err := l.write(e); err != nil {
				return err
			}
		}
		return nil
	}
}

func prepareEntry(e itb.Entry, opts showOptions) itb.Entry {
	if opts.demangle && e.Function != "" {
		e.Function = demangle.Filter(e.Function, demangle.NoClones)
	}
	return e
}

// entryWriter returns a per-entry encoder for streaming output.
func entryWriter(w io.Writer, opts showOptions) func(itb.Entry) error {
	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		return func(e itb.Entry) error { return enc.Encode(e) }
	case formatYAML:
		return func(e itb.Entry) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode([]itb.Entry{e}); err != nil {
				return err
			}
			return enc.Close()
		}
	default:
		l := newListing(w, opts.color)
		return l.write
	}
}

func writeSummary(w io.Writer, entries []itb.Entry, opts showOptions) error {
	md := report.Summarize(entries, nil).Markdown()
	if !opts.color {
		_, err := io.WriteString(w, md)
		return err
	}

	r, err := styles.GetMarkdownRenderer(opts.width)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// followTable feeds entries from a growing table file to fn until ctx is
// cancelled.
func followTable(ctx context.Context, path string, fn func(itb.Entry) error) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("follow %s: %w", path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	pr, pw := io.Pipe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				pw.Close()
				return
			case line, ok := <-t.Lines:
				if !ok {
					pw.CloseWithError(t.Err())
					return
				}
				if line.Err != nil {
					pw.CloseWithError(line.Err)
					return
				}
				if _, err := io.WriteString(pw, line.Text+"\n"); err != nil {
					return
				}
			}
		}
	}()

	rd := itb.NewReader(pr)
	for {
		e, err := rd.Next()
		if err != nil {
			pr.Close()
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("follow %s: %w", path, err)
		}
		if err := fn(e); err != nil {
			pr.CloseWithError(err)
			return err
		}
	}
}

// listing renders entries the way objdump lays them out: a header when the
// function changes, the source location when it changes, then annotations
// and the instruction.
type listing struct {
	w     io.Writer
	color bool
	fn    string
	src   string
	first bool
}

func newListing(w io.Writer, color bool) *listing {
	return &listing{w: w, color: color, first: true}
}

func (l *listing) style(s string, render func(...string) string) string {
	if !l.color {
		return s
	}
	return render(s)
}

func (l *listing) write(e itb.Entry) error {
	var b strings.Builder

	fn := e.Function
	if fn == "" {
		fn = itb.NoFunction
	}
	if l.first || fn != l.fn {
		if !l.first {
			b.WriteString("\n")
		}
		b.WriteString(l.style(fmt.Sprintf("<%s>:", fn), styles.FunctionStyle.Render))
		b.WriteString("\n")
		l.fn = fn
		l.src = ""
	}
	l.first = false

	if e.File != "" {
		if src := e.File + ":" + e.Line; src != l.src {
			b.WriteString(l.style(src, styles.SourceStyle.Render))
			b.WriteString("\n")
			l.src = src
		}
	}

	for _, a := range e.Annotations {
		b.WriteString(l.style("    | "+a, styles.AnnotationStyle.Render))
		b.WriteString("\n")
	}

	asm := e.Asm
	if l.color {
		asm = colorize.ColorizeInstruction(asm)
	}
	fmt.Fprintf(&b, "%s  %s  %s\n",
		l.style(fmt.Sprintf("%8x:", e.Address), styles.AddressStyle.Render),
		l.style(fmt.Sprintf("%-8s", e.Opcode), styles.OpcodeStyle.Render),
		asm)

	_, err := io.WriteString(l.w, b.String())
	return err
}
