package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/optolab/ivctl/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run <protocol>",
	Short: "Execute a protocol to completion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, err := cli.BuildController(configFromFlags(cmd))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		rawParams, _ := cmd.Flags().GetStringArray("param")
		params, err := parseParams(rawParams)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Ctrl-C requests a cooperative abort; the run winds down with
		// outputs off and partial data intact.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			fmt.Fprintln(os.Stderr, "abort requested, finishing current point...")
			_ = ctrl.Abort()
		}()

		result, runErr := ctrl.Run(context.Background(), args[0], params)
		cli.NewPrinter().Result(result)
		if runErr != nil {
			os.Exit(1)
		}
	},
}

// parseParams turns key=value pairs into protocol parameters, preferring
// numeric and boolean literals over strings.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", pair)
		}
		switch {
		case value == "true" || value == "false":
			params[key] = value == "true"
		default:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				params[key] = f
			} else {
				params[key] = value
			}
		}
	}
	return params, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArray("param", nil, "Initial protocol parameter as key=value (repeatable)")
}
