package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haukened/popguard/internal/guard/common/log"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Print the verdict for each URL",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	c, err := buildClassifier(cfg, log.NewNoopLogger())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, u := range args {
		ex := c.Explain(u)
		if ex.Rule == "" {
			fmt.Fprintf(out, "%-10s  %s\n", ex.Verdict, u)
			continue
		}
		fmt.Fprintf(out, "%-10s  %s  (%s, %s)\n", ex.Verdict, u, ex.Rule, ex.Source)
	}
	return nil
}
