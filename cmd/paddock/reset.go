package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/aretw0/paddock"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [item...]",
	Short: "Replace the entire pool membership",
	Long: `Rotates the pool to exactly the given items (or one item per line on
stdin when no arguments are given). The old membership stays usable until
the swap completes atomically. With --preserve-scores, items surviving the
rotation keep their lease state.`,
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := newPool(cmd)
		if err != nil {
			fail(err)
		}
		defer pool.Close()

		items := args
		if len(items) == 0 && !isTerminal(os.Stdin) {
			items, err = readLines(os.Stdin)
			if err != nil {
				fail(err)
			}
		}

		batchSize, _ := cmd.Flags().GetInt("batch-size")
		preserve, _ := cmd.Flags().GetBool("preserve-scores")

		opts := []paddock.ResetOption{paddock.WithBatchSize(batchSize)}
		if preserve {
			opts = append(opts, paddock.PreserveScores())
		}

		count, err := pool.Reset(cmd.Context(), items, opts...)
		if err != nil {
			fail(err)
		}
		fmt.Printf("pool now holds %d item(s)\n", count)
	},
}

func readLines(f *os.File) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Int("batch-size", 500, "Items staged per write during rotation")
	resetCmd.Flags().Bool("preserve-scores", false, "Carry lease state over for items surviving the rotation")
}
