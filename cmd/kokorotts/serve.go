package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/example/go-kokoro-tts/internal/server"
	"github.com/example/go-kokoro-tts/internal/tts"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP synthesis server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			svc, err := tts.NewService(cfg, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, svc, nil).Start(ctx)
		},
	}

	return cmd
}
