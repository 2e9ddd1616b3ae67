package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"opium-checker/internal/config"
	"opium-checker/internal/domain"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the checker on new chain heads",
		Long: `Subscribe to newHeads on chain.ws_url and run the configured watch task
every watch.every_blocks blocks, using the head timestamp as the evaluation time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := a.watcher()
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	flags := cmd.Flags()
	stringFlag(flags, "ws-url", "chain.ws_url", "JSON-RPC websocket endpoint for newHeads")
	uintFlag(flags, "every", "watch.every_blocks", "evaluate every n-th block")
	stringFlag(flags, "type", "watch.scheduler_type", "scheduler type (deposit or withdrawal)")
	stringFlag(flags, "scheduler", "watch.scheduler_address", "scheduler contract address")
	stringFlag(flags, "subgraph", "watch.subgraph_name", "subgraph name under the configured author")
	stringFlag(flags, "network", "watch.network", "network name or chain id")
	return cmd
}

func domainUserArgs(w config.WatchConfig) domain.UserArgs {
	return domain.UserArgs{
		SchedulerType:    w.SchedulerType,
		SchedulerAddress: w.SchedulerAddress,
		SubgraphName:     w.SubgraphName,
	}
}
