package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optolab/ivctl/internal/cli"
	"github.com/optolab/ivctl/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <protocol>",
	Short: "Parse, validate, and lint a protocol without executing it",
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
		findings := validator.Lint(def)
		for _, f := range findings {
			fmt.Printf("warning: %s\n", f)
		}
		fmt.Printf("%s: %d steps ok, %d warnings\n", def.Name, len(def.Steps), len(findings))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
