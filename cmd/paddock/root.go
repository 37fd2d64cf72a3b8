package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/paddock"
	"github.com/aretw0/paddock/internal/logging"
	"github.com/aretw0/paddock/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paddock",
	Short: "Paddock is a shared lease pool backed by Redis",
	Long: `Paddock manages a pool of reusable items (tokens, credentials, proxy
endpoints) shared by many concurrent clients. Items are checked out with an
auto-expiring lease and returned when done; the whole membership can be
rotated without disturbing in-flight leases.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("addr", "localhost:6379", "Redis address")
	rootCmd.PersistentFlags().String("password", "", "Redis password")
	rootCmd.PersistentFlags().Int("db", 0, "Redis database")
	rootCmd.PersistentFlags().String("pool", "paddock", "Pool key (namespacing identity)")
	rootCmd.PersistentFlags().Duration("lease", 30*time.Second, "Lease duration for checkouts")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// newPool builds a string-item pool from the persistent flags.
func newPool(cmd *cobra.Command) (*paddock.Pool[string], error) {
	addr, _ := cmd.Flags().GetString("addr")
	password, _ := cmd.Flags().GetString("password")
	db, _ := cmd.Flags().GetInt("db")
	poolKey, _ := cmd.Flags().GetString("pool")
	lease, _ := cmd.Flags().GetDuration("lease")

	return paddock.New(poolKey, lease, domain.StringCodec{},
		paddock.WithAddr(addr, password, db),
		paddock.WithLogger(newLogger(cmd)),
	)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}

// fail prints the error and exits non-zero, keeping stdout clean.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
