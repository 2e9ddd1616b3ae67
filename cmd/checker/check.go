package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opium-checker/internal/chain"
	"opium-checker/internal/domain"
)

type checkOptions struct {
	schedulerType string
	scheduler     string
	subgraphName  string
	network       string
	timestamp     int64
	report        bool
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the checker once and print its result",
		Long: `Run the checker once and print {"canExec", "execData"} as JSON.
Without --timestamp the timestamp of the latest block is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.schedulerType, "type", "", "scheduler type (deposit or withdrawal)")
	flags.StringVar(&opts.scheduler, "scheduler", "", "scheduler contract address")
	flags.StringVar(&opts.subgraphName, "subgraph", "", "subgraph name under the configured author")
	flags.StringVar(&opts.network, "network", "", "network name or chain id (default network when empty)")
	flags.Int64Var(&opts.timestamp, "timestamp", 0, "evaluation timestamp in seconds")
	flags.BoolVar(&opts.report, "report", false, "print the full run report instead of the result")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("scheduler")
	_ = cmd.MarkFlagRequired("subgraph")

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOptions, opts *checkOptions) error {
	ctx := cmd.Context()
	logger := root.logger

	c, client, cleanup, err := newChecker(ctx, root.cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	now := opts.timestamp
	if now == 0 {
		if now, err = chain.LatestTimestamp(ctx, client); err != nil {
			return err
		}
		logger.Debug("using latest block timestamp", zap.Int64("timestamp", now))
	}

	userArgs, err := json.Marshal(domain.UserArgs{
		SchedulerType:    opts.schedulerType,
		SchedulerAddress: opts.scheduler,
		SubgraphName:     opts.subgraphName,
	})
	if err != nil {
		return err
	}
	gelatoArgs, err := json.Marshal(domain.GelatoArgs{TimeStamp: fmt.Sprint(now)})
	if err != nil {
		return err
	}

	report, err := c.Check(ctx, userArgs, gelatoArgs, connection(opts.network))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if opts.report {
		return enc.Encode(report)
	}
	return enc.Encode(report.Result)
}

func connection(network string) domain.Connection {
	return domain.Connection{NetworkNameOrChainID: network}
}
