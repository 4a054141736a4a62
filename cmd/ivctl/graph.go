package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optolab/ivctl/internal/cli"
	"github.com/optolab/ivctl/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <protocol>",
	Short: "Print a Mermaid flowchart of a protocol",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, err := cli.BuildController(configFromFlags(cmd))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		def, err := ctrl.ValidateProtocol(args[0])
		if err != nil {
			fmt.Printf("invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(def))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
