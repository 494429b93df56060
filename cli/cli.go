// Package cli implements the beancount-bot command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/robinvdvleuten/beancount-bot/config"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/output"
	"github.com/robinvdvleuten/beancount-bot/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
	handleStyle  = lipgloss.NewStyle().Bold(true)
	usageStyle   = lipgloss.NewStyle().PaddingLeft(2)
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...any) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// printEntry prints ledger text indented under a status line.
func printEntry(w io.Writer, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
}

// stdin is read when a command gets no text arguments.
var stdin io.Reader = os.Stdin

// readText joins args into the text of one message, or reads it from stdin
// when there are none.
func readText(args []string) (string, error) {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.User("No text given.")
	}
	return text, nil
}

// reportError prints err for the user and returns the CommandError that
// ends the command.
func reportError(ctx *kong.Context, source string, err error) error {
	var src []byte
	if source != "" {
		src = []byte(source)
	}
	_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(src).Render(err))
	return NewCommandError(1, err)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// newLogger builds the process logger. The level flag wins over the config.
func newLogger(w io.Writer, globals *Globals, cfg *config.Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	format := ""
	if cfg != nil {
		var err error
		if level, err = cfg.LogLevel(); err != nil {
			return zerolog.Nop(), err
		}
		format = cfg.Log.Format
	}
	if globals.LogLevel != "" {
		var err error
		if level, err = zerolog.ParseLevel(strings.ToLower(globals.LogLevel)); err != nil {
			return zerolog.Nop(), fmt.Errorf("--log-level: %w", err)
		}
	}

	out := w
	if format == "console" || (format == "" && isTerminalWriter(w)) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// startTelemetry returns a context collecting timings when --telemetry is
// set, and a function that prints them.
func startTelemetry(ctx *kong.Context, globals *Globals) (context.Context, func()) {
	runCtx := context.Background()
	if !globals.Telemetry {
		return runCtx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	runCtx = telemetry.WithCollector(runCtx, collector)

	return runCtx, func() {
		_, _ = fmt.Fprintln(ctx.Stderr)
		collector.Report(ctx.Stderr, output.NewStyles(ctx.Stderr))
	}
}
