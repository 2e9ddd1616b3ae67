package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"opium-checker/internal/api"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checker over HTTP",
		Long: `Serve POST /v1/checker, GET /v1/decisions, /health and /metrics.
With --watch the configured watch task also runs on new heads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			withWatch, _ := cmd.Flags().GetBool("watch")
			return runServe(cmd.Context(), root, withWatch)
		},
	}

	stringFlag(cmd.Flags(), "addr", "http.addr", "HTTP listen address")
	cmd.Flags().Bool("watch", false, "also run the watch task")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, withWatch bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	server := api.NewServer(&api.Handler{
		Checker:     a.checker,
		Recorder:    a.recorder,
		Decisions:   a.stores.decisions,
		Evaluations: a.stores.evaluations,
		Logger:      a.logger.Named("api"),
	}, a.cfg.HTTP.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})

	if withWatch {
		w, err := a.watcher()
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		a.logger.Error("serve stopped", zap.Error(err))
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
