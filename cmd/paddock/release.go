package main

import (
	"time"

	"github.com/spf13/cobra"
)

// releaseCmd represents the release command
var releaseCmd = &cobra.Command{
	Use:   "release <item>",
	Short: "Return a leased item to the pool",
	Long: `Makes the item immediately available again, or — with --cooldown or
--until — defers its availability, e.g. to bench a rate-limited token.
Releasing an item that is not a pool member (re-)admits it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := newPool(cmd)
		if err != nil {
			fail(err)
		}
		defer pool.Close()

		cooldown, _ := cmd.Flags().GetDuration("cooldown")
		untilStr, _ := cmd.Flags().GetString("until")

		var lockTill time.Time
		switch {
		case untilStr != "":
			lockTill, err = time.Parse(time.RFC3339, untilStr)
			if err != nil {
				fail(err)
			}
		case cooldown > 0:
			lockTill = time.Now().Add(cooldown)
		}

		if err := pool.ReplaceUntil(cmd.Context(), args[0], lockTill); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().Duration("cooldown", 0, "Keep the item out of rotation for this long")
	releaseCmd.Flags().String("until", "", "Keep the item out of rotation until this RFC3339 instant")
}
