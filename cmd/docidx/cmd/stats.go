package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docidx/docidx/internal/output"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <name>",
		Short: "Print an index's indexing and reduce counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0])
		},
	}
	return cmd
}

func runStats(cmd *cobra.Command, name string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.Get(name); err != nil {
		return fmt.Errorf("opening index %q: %w", name, err)
	}

	counters, err := e.Actions().Snapshot(name)
	if err != nil {
		return fmt.Errorf("reading statistics for %q: %w", name, err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("", "%s: indexing attempts=%d failures=%d, reduce attempts=%d failures=%d",
		name, counters.IndexingAttempts, counters.IndexingFailures, counters.ReduceAttempts, counters.ReduceFailures)
	return nil
}
