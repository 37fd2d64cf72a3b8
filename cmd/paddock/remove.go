package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <item>...",
	Short: "Remove items from the pool",
	Long: `Deletes the given items from the pool. Removing a mid-lease item
invalidates that lease; the holder can still release it afterward, which
re-admits it.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := newPool(cmd)
		if err != nil {
			fail(err)
		}
		defer pool.Close()

		removed := 0
		for _, item := range args {
			ok, err := pool.Remove(cmd.Context(), item)
			if err != nil {
				fail(err)
			}
			if ok {
				removed++
			}
		}
		fmt.Printf("removed %d of %d item(s)\n", removed, len(args))
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
