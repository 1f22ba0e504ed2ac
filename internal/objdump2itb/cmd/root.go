package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"objdump2itb/internal/config"
	"objdump2itb/internal/itb"
	"objdump2itb/internal/logging"
	"objdump2itb/internal/objdump2itb/log"
)

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug logging on stderr")
}

var rootCmd = &cobra.Command{
	Use:   "objdump2itb <objdump|->",
	Short: "Convert an objdump listing into an instruction table",
	Long: `objdump2itb reads a disassembly listing produced with source annotations
(objdump -d -l -s) and writes an instruction table: one framed entry per
instruction carrying its function, source file and line, and the listing
text that preceded it.`,
	Example: `
# Convert a listing file
objdump2itb program.objdump > program.itb

# Read the listing from a pipe with debug logging
riscv32-unknown-elf-objdump -d -l -s program.elf | objdump2itb -d - > program.itb
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		lg := newLogger(cmd)
		defer lg.Close()

		return runConvert(args[0], cmd.InOrStdin(), cmd.OutOrStdout(), lg.Logger)
	},
}

// newLogger builds the diagnostics logger for a command invocation and
// installs it as the slog default.
func newLogger(cmd *cobra.Command) *logging.LoggerCloser {
	debug, _ := cmd.Flags().GetBool("debug")
	cfg := config.FromEnv().WithDebug(debug)

	var lg *logging.LoggerCloser
	if cfg.LogToFile {
		lg = logging.NewLogger(cfg)
	} else {
		lg = logging.NewLoggerWithWriter(cmd.ErrOrStderr(), cfg)
	}
	log.Setup(lg.Logger)
	return lg
}

// openInput opens path for reading; "-" selects stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return f, nil
}

func runConvert(path string, stdin io.Reader, stdout io.Writer, lg *charmlog.Logger) error {
	in, err := openInput(path, stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	lg.Debug("Converting listing", "input", path)
	stats, err := itb.Convert(in, stdout, itb.WithLogger(lg))
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}
	if stats.Dropped > 0 {
		lg.Debug("Annotation lines dropped at the buffer cap", "dropped", stats.Dropped)
	}
	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Bypass fang when output is piped so nothing but the table reaches stdout
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.ExecuteContext(ctx); err != nil {
			stop()
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		stop()
		os.Exit(1)
	}
}
