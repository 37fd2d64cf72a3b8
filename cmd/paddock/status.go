package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pool membership and availability",
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := newPool(cmd)
		if err != nil {
			fail(err)
		}
		defer pool.Close()

		members, err := pool.Members(cmd.Context())
		if err != nil {
			fail(err)
		}

		now := time.Now()
		available := 0
		for _, m := range members {
			state := "available"
			if !m.Available(now) {
				state = fmt.Sprintf("leased until %s", m.AvailableAt.Format(time.RFC3339))
			} else {
				available++
			}
			fmt.Printf("%-40s %s\n", m.Element, state)
		}
		fmt.Printf("\n%d item(s), %d available\n", len(members), available)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
