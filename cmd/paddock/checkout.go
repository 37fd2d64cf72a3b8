package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/paddock/pkg/domain"
	"github.com/spf13/cobra"
)

// checkoutCmd represents the checkout command
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Lease an item from the pool",
	Long: `Atomically picks the least-recently-available item, leases it for the
configured duration, and prints it to stdout. Exits with status 3 when every
item is currently leased.`,
	Run: func(cmd *cobra.Command, args []string) {
		pool, err := newPool(cmd)
		if err != nil {
			fail(err)
		}
		defer pool.Close()

		ctx := cmd.Context()
		wait, _ := cmd.Flags().GetBool("wait")

		var item string
		if wait {
			item, err = pool.ChooseWait(ctx)
		} else {
			item, err = pool.Choose(ctx)
		}
		if errors.Is(err, domain.ErrNoItemAvailable) {
			fmt.Fprintln(os.Stderr, "no item available")
			os.Exit(3)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintln(os.Stderr, "gave up waiting for an item")
			os.Exit(3)
		}
		if err != nil {
			fail(err)
		}

		fmt.Println(item)
	},
}

func init() {
	rootCmd.AddCommand(checkoutCmd)

	checkoutCmd.Flags().BoolP("wait", "w", false, "Retry with backoff until an item frees up or the command is interrupted")
}
