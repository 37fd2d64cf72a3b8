package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <item>...",
	Short: "Add items to the pool",
	Long: `Inserts the given items as immediately available. Adding an item that
already exists is a safe no-op: its current availability, including an
in-flight lease, is never touched.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := newPool(cmd)
		if err != nil {
			fail(err)
		}
		defer pool.Close()

		added := 0
		for _, item := range args {
			ok, err := pool.Add(cmd.Context(), item)
			if err != nil {
				fail(err)
			}
			if ok {
				added++
			}
		}
		fmt.Printf("added %d of %d item(s)\n", added, len(args))
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
