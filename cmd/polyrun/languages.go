package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages [key]",
	Short: "List supported languages, or show one language's scaffold",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("loading languages: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		desc, err := registry.Describe(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s, %s)\n\n%s\n", desc.DisplayName, desc.Key, desc.Route, desc.Scaffold)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tROUTE")
	for _, d := range registry.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Key, d.DisplayName, d.Route)
	}
	return tw.Flush()
}
