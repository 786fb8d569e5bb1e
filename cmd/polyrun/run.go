package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/execution"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a source file or snippet",
	Long: `Run source code once and print its output.

The language is taken from --lang, or guessed from the file extension.
Use "-" as the file to read the source from standard input.

Examples:
  polyrun run hello.ts
  polyrun run -l python -c 'print(42)'
  polyrun run main.go --stdin "3 4"
  cat script.js | polyrun run -l javascript -
  polyrun run --watch main.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("lang", "l", "", "Language key (see 'polyrun languages')")
	runCmd.Flags().StringP("code", "c", "", "Source code to run instead of a file")
	runCmd.Flags().String("stdin", "", "Text passed to the program's standard input (remote languages)")
	runCmd.Flags().Bool("json", false, "Print the raw result as JSON")
	runCmd.Flags().BoolP("watch", "w", false, "Run again whenever the file changes (Ctrl+C to stop)")
	rootCmd.AddCommand(runCmd)
}

// extLanguages maps file extensions to registry keys.
var extLanguages = map[string]string{
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".py":    "python",
	".java":  "java",
	".cpp":   "cpp",
	".cc":    "cpp",
	".c":     "c",
	".go":    "go",
	".rs":    "rust",
	".php":   "php",
	".rb":    "ruby",
	".swift": "swift",
	".kt":    "kotlin",
}

func runRun(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	code, _ := cmd.Flags().GetString("code")
	stdin, _ := cmd.Flags().GetString("stdin")
	asJSON, _ := cmd.Flags().GetBool("json")
	watch, _ := cmd.Flags().GetBool("watch")

	source, file, err := readSource(cmd.InOrStdin(), code, args)
	if err != nil {
		return err
	}

	if lang == "" {
		lang = extLanguages[strings.ToLower(filepath.Ext(file))]
		if lang == "" {
			return fmt.Errorf("cannot tell the language of %q; pass --lang", file)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Output is printed once, from the result.
	d, err := cfg.Dispatcher(console.Channels{})
	if err != nil {
		return err
	}

	show := func(res execution.Result) error {
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("run failed: %s", res.Kind())
			}
			return nil
		}
		return printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
	}

	err = show(d.Run(context.Background(), source, lang, stdin))
	if !watch {
		return err
	}
	if file == "" {
		return fmt.Errorf("--watch needs a file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s (Ctrl+C to stop)\n", file)
	return watchFile(ctx, file, 200*time.Millisecond, func() {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "reading %s: %v\n", file, err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s changed ---\n", file)
		show(d.Run(context.Background(), string(data), lang, stdin))
	})
}

// readSource returns the code to run and the file it came from ("" for
// --code or stdin).
func readSource(stdin io.Reader, code string, args []string) (string, string, error) {
	switch {
	case code != "" && len(args) > 0:
		return "", "", fmt.Errorf("pass either --code or a file, not both")
	case code != "":
		return code, "", nil
	case len(args) == 0:
		return "", "", fmt.Errorf("nothing to run: pass a file or --code")
	case args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}
