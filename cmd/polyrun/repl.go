package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/dispatch"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive editor: write code, run it, switch languages",
	Long: `Start an interactive session.

Lines you type are collected into a buffer. Commands:
  /run             run the buffer and keep it
  /lang <key>      switch language
  /scaffold        replace the buffer with the language's starter code
  /show            print the buffer
  /clear           empty the buffer
  /langs           list languages
  /quit            exit

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)`,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringP("lang", "l", "javascript", "Initial language")
	replCmd.Flags().String("history", "", "History file path (default: ~/.polyrun_history)")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	historyFile, _ := cmd.Flags().GetString("history")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".polyrun_history")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := cfg.Dispatcher(console.Channels{})
	if err != nil {
		return err
	}

	sess, err := newReplSession(d, lang, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sess.prompt(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(sess.out, "polyrun - %s. Type /help for commands, /quit to exit\n\n", sess.lang)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(sess.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		if sess.handle(line) {
			return nil
		}
		rl.SetPrompt(sess.prompt())
	}
}

// replSession is the editor state behind the REPL: a source buffer and the
// selected language.
type replSession struct {
	d    *dispatch.Dispatcher
	lang string
	buf  []string
	out  io.Writer
}

func newReplSession(d *dispatch.Dispatcher, lang string, out io.Writer) (*replSession, error) {
	if _, err := d.Registry().Describe(lang); err != nil {
		return nil, err
	}
	return &replSession{d: d, lang: lang, out: out}, nil
}

func (s *replSession) prompt() string {
	if len(s.buf) > 0 {
		return "\033[36m...\033[0m "
	}
	return fmt.Sprintf("\033[36m%s>\033[0m ", s.lang)
}

func (s *replSession) source() string {
	return strings.Join(s.buf, "\n")
}

// handle processes one input line and reports whether the session should end.
func (s *replSession) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		s.buf = append(s.buf, line)
		return false
	}

	fields := strings.Fields(trimmed)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit", "/q":
		fmt.Fprintln(s.out, "Goodbye!")
		return true
	case "/run", "/r":
		s.run()
	case "/lang":
		if len(fields) != 2 {
			fmt.Fprintf(s.out, "usage: /lang <key> (current: %s)\n", s.lang)
			break
		}
		if _, err := s.d.Registry().Describe(fields[1]); err != nil {
			fmt.Fprintf(s.out, "%v\n", err)
			break
		}
		s.lang = fields[1]
		fmt.Fprintf(s.out, "Language: %s\n", s.lang)
	case "/scaffold":
		desc, _ := s.d.Registry().Describe(s.lang)
		s.buf = strings.Split(strings.TrimRight(desc.Scaffold, "\n"), "\n")
		fmt.Fprintln(s.out, s.source())
	case "/show":
		fmt.Fprintln(s.out, s.source())
	case "/clear":
		s.buf = nil
		fmt.Fprintln(s.out, "Buffer cleared.")
	case "/langs":
		for _, desc := range s.d.Registry().All() {
			fmt.Fprintf(s.out, "  %-12s %s\n", desc.Key, desc.DisplayName)
		}
	case "/help":
		fmt.Fprintln(s.out, "Commands: /run /lang <key> /scaffold /show /clear /langs /quit")
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (try /help)\n", trimmed)
	}
	return false
}

func (s *replSession) run() {
	if len(s.buf) == 0 {
		fmt.Fprintln(s.out, "Buffer is empty.")
		return
	}
	res := s.d.Run(context.Background(), s.source(), s.lang, "")
	// Failures go to the same stream so the transcript stays in order.
	printResult(s.out, s.out, res)
	fmt.Fprintln(s.out)
}
