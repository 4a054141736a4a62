package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optolab/ivctl/internal/cli"
	"github.com/optolab/ivctl/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the bench as MCP tools on stdin/stdout",
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, err := cli.BuildController(configFromFlags(cmd))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := mcp.NewServer(ctrl).ServeStdio(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
