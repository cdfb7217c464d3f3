// Command weather is the Weather interpreter CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zanderlewis/weather/pkg/config"
	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/formatter"
	"github.com/zanderlewis/weather/pkg/help"
	"github.com/zanderlewis/weather/pkg/runtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(runtime.ExitIO)
	}
}

// exitError carries a process exit code after the error was already reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// cli holds the streams and persistent flags shared by all subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfgFile string
	verbose bool
	pretty  bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "weather",
		Short: "Weather: exact arithmetic scripting for weather science",
		Long: `Weather is a small scripting language with exact rational arithmetic,
meteorological builtins and a state-vector qubit simulator.

Run 'weather doc' for a language overview.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: ./weather.toml or ~/.config/weather/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "human-readable diagnostics instead of JSON")

	root.AddCommand(
		c.runCmd(),
		c.checkCmd(),
		c.fmtCmd(),
		c.tokensCmd(),
		c.replCmd(),
		c.docCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) runCmd() *cobra.Command {
	var (
		seed      uint64
		tracePath string
		strict    bool
		showValue bool
	)
	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Execute a Weather script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(args[0])
			if err != nil {
				return err
			}

			var opts []runtime.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, runtime.WithSeed(seed))
			}
			if strict {
				opts = append(opts, runtime.WithStrictValidation())
			}
			if tracePath != "" {
				w, closeTrace, err := c.openTrace(tracePath)
				if err != nil {
					return err
				}
				defer closeTrace()
				opts = append(opts, runtime.WithTrace(runtime.NDJSONTrace(w)))
			}

			rt, err := c.newRuntime(opts...)
			if err != nil {
				return err
			}
			res, err := rt.Run(cmd.Context(), source, filename)
			if err != nil {
				return c.report(err)
			}
			if showValue {
				data, err := evaluator.ValueToJSON(res.Value)
				if err != nil {
					return c.report(err)
				}
				fmt.Fprintln(c.stdout, string(data))
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "fix the quantum measurement seed")
	cmd.Flags().StringVar(&tracePath, "trace", "", "write NDJSON trace events to a file ('-' for stderr)")
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to run when static validation reports problems")
	cmd.Flags().BoolVar(&showValue, "value", false, "print the value of the last statement as JSON")
	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|->",
		Short: "Parse and validate a script without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(args[0])
			if err != nil {
				return err
			}
			rt, err := c.newRuntime()
			if err != nil {
				return err
			}
			if diags := rt.Check(source, filename); len(diags) > 0 {
				return c.report(&runtime.DiagnosticError{Diagnostics: diags})
			}
			if c.pretty {
				fmt.Fprintln(c.stdout, "No errors found.")
			} else {
				fmt.Fprintln(c.stdout, "[]")
			}
			return nil
		},
	}
}

func (c *cli) fmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Print a script in canonical layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(args[0])
			if err != nil {
				return err
			}
			rt, err := c.newRuntime()
			if err != nil {
				return err
			}
			formatted, err := rt.Format(source, filename)
			if err != nil {
				return c.report(err)
			}
			if formatter.HasComments(source) {
				fmt.Fprintln(c.stderr, "warning: comments are not preserved by the formatter")
			}
			if write && args[0] != "-" {
				if err := os.WriteFile(args[0], []byte(formatted), 0o644); err != nil {
					return c.report(fmt.Errorf("writing %s: %w", args[0], err))
				}
				return nil
			}
			fmt.Fprint(c.stdout, formatted)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "overwrite the file instead of printing")
	return cmd
}

func (c *cli) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file|->",
		Short: "Print the token stream of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(args[0])
			if err != nil {
				return err
			}
			rt, err := c.newRuntime()
			if err != nil {
				return err
			}
			tokens, err := rt.Tokens(source, filename)
			if err != nil {
				return c.report(err)
			}
			for _, tok := range tokens {
				fmt.Fprintf(c.stdout, "%d:%d\t%s\t%q\n", tok.Span.StartLine, tok.Span.StartCol, tok.Type, tok.Value)
			}
			return nil
		},
	}
}

func (c *cli) docCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doc [topic]",
		Short: "Show language reference topics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(c.stdout, help.QUICKREF)
				return nil
			}
			_, content, err := help.MatchTopic(args[0])
			if err != nil {
				fmt.Fprintf(c.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
				return &exitError{code: runtime.ExitIO}
			}
			fmt.Fprint(c.stdout, content)
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the interpreter version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "weather %s\n", help.Version)
		},
	}
}

// newRuntime resolves the configuration and builds a runtime writing to stdout.
func (c *cli) newRuntime(opts ...runtime.Option) (*runtime.Runtime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, c.report(err)
	}
	cfg, err := config.Resolve(c.cfgFile, cwd)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, c.pretty))
		return nil, &exitError{code: runtime.ExitIO}
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return nil, c.report(err)
	}
	logger.Debug("config resolved", "source", cfg.Source, "precision", cfg.Runtime.Precision)

	base := []runtime.Option{
		runtime.WithConfig(cfg),
		runtime.WithLogger(logger),
		runtime.WithOutput(c.stdout),
	}
	return runtime.New(append(base, opts...)...), nil
}

// newLogger builds the stderr logger from the [log] section; --verbose forces debug.
func (c *cli) newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(c.stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(c.stderr, opts)), nil
}

// readSource reads a script from a path, or from stdin when path is "-".
func (c *cli) readSource(path string) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", "", c.report(fmt.Errorf("reading stdin: %w", err))
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", c.report(fmt.Errorf("cannot read file: %s", path))
	}
	return string(data), path, nil
}

func (c *cli) openTrace(path string) (io.Writer, func(), error) {
	if path == "-" {
		return c.stderr, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, c.report(fmt.Errorf("creating trace file: %w", err))
	}
	return f, func() { _ = f.Close() }, nil
}

// report prints err as diagnostics and converts it to an exit code.
func (c *cli) report(err error) error {
	fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(runtime.DiagnosticsOf(err), c.pretty))
	return &exitError{code: runtime.ExitCode(err)}
}
