package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/evaluator"
	"github.com/zanderlewis/weather/pkg/help"
	"github.com/zanderlewis/weather/pkg/runtime"
)

const (
	historyFile = ".weather_history"
	promptMain  = "wx> "
	promptCont  = "... "
)

var (
	valueColor = color.New(color.FgGreen).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
	dimColor   = color.New(color.Faint).SprintFunc()
)

func (c *cli) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.newRuntime()
			if err != nil {
				return err
			}
			return c.repl(cmd.Context(), rt.NewSession())
		},
	}
}

func (c *cli) repl(ctx context.Context, s *runtime.Session) error {
	fmt.Fprintf(c.stdout, "Weather %s. Type :help for help, :quit to exit.\n", help.Version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(c.stdout)
			return nil
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := c.replCommand(trimmed, s); quit {
				return nil
			}
			continue
		}

		v, err := s.Eval(ctx, code)
		if err != nil {
			c.replError(err)
			continue
		}
		if _, isUnit := v.(evaluator.WUnit); !isUnit && v != nil {
			fmt.Fprintln(c.stdout, valueColor(evaluator.Repr(v, s.Precision())))
		}
	}
}

// replCommand handles ':' commands and reports whether the session should end.
func (c *cli) replCommand(line string, s *runtime.Session) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		if len(fields) > 1 {
			if _, content, err := help.MatchTopic(fields[1]); err == nil {
				fmt.Fprint(c.stdout, content)
				return false
			}
		}
		fmt.Fprint(c.stdout, help.QUICKREF)
	case ":vars":
		for _, name := range s.Machine().Globals().Names() {
			v, _ := s.Machine().Globals().Get(name)
			fmt.Fprintf(c.stdout, "%s = %s\n", name, evaluator.Repr(v, s.Precision()))
		}
	default:
		fmt.Fprintln(c.stdout, dimColor("unknown command; try :help, :vars or :quit"))
	}
	return false
}

func (c *cli) replError(err error) {
	for _, d := range runtime.DiagnosticsOf(err) {
		fmt.Fprintln(c.stderr, errorColor(diagnostics.FormatDiagnostic(d, true)))
	}
}

// readInput reads lines until they form a complete input. ok is false at end of input.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !strings.HasPrefix(strings.TrimSpace(src), ":") && runtime.Incomplete(src) {
			continue
		}
		return src, true
	}
}
