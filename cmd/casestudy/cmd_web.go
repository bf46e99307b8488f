package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/casestudy-ai/cli/internal/web"
)

func newWebCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Web.Addr
			}

			handler, err := web.NewHandler(a.client(), a.files())
			if err != nil {
				return fmt.Errorf("failed to load templates: %w", err)
			}
			server := web.NewServer(addr, web.NewRouter(handler, a.logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "CaseStudy AI on http://%s (backend %s)\n", addr, a.cfg.API.BaseURL)
			return web.Serve(ctx, server, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config web.addr)")
	return cmd
}
