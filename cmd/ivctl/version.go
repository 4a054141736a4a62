package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ivctl "github.com/optolab/ivctl"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ivctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ivctl version %s\n", ivctl.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
