package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optolab/ivctl/internal/cli"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available protocols",
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, err := cli.BuildController(configFromFlags(cmd))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		names, err := ctrl.Protocols()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		cli.NewPrinter().Protocols(names)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
