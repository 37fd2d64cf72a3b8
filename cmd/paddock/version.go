package main

import (
	"fmt"

	"github.com/aretw0/paddock"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of paddock",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paddock version %s\n", paddock.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
