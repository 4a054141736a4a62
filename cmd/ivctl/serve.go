package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/optolab/ivctl/internal/adapters/http"
	"github.com/optolab/ivctl/internal/cli"
	"github.com/optolab/ivctl/internal/logging"
	"github.com/optolab/ivctl/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP control API",
	Run: func(cmd *cobra.Command, args []string) {
		ctrl, err := cli.BuildController(configFromFlags(cmd))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		addr, _ := cmd.Flags().GetString("addr")
		logger := logging.New(logLevelFromFlags(cmd))
		tui.PrintBanner()

		srv := &http.Server{
			Addr:    addr,
			Handler: httpadapter.NewHandler(ctrl, logger),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			fmt.Println(err)
			os.Exit(1)
		case <-sigCh:
			logger.Info("shutting down")
			// Stop any active run first so hardware ends up safe.
			_ = ctrl.Abort()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
