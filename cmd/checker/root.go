package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"opium-checker/internal/config"
	"opium-checker/internal/logging"
)

// viperKey annotates a flag with the config key it overrides.
const viperKey = "viper_key"

// rootOptions is shared by every subcommand once PersistentPreRunE has run.
type rootOptions struct {
	cfgFile string
	envFile string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "checker",
		Short:         "Off-chain resolver for the Opium deposit/withdrawal scheduler",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.Flags())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	stringFlag(flags, "log-level", "log.level", "log level (debug, info, warn, error)")
	stringFlag(flags, "log-format", "log.format", "log format (json, console)")
	stringFlag(flags, "rpc-url", "chain.rpc_url", "JSON-RPC endpoint of the default network")
	stringFlag(flags, "subgraph-url", "subgraph.url", "subgraph hosted-service base URL")

	cmd.AddCommand(
		newCheckCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// load builds the configuration and logger. Flags that were set override
// the config file and environment.
func (o *rootOptions) load(flags *pflag.FlagSet) error {
	v, err := config.NewViper(o.cfgFile, o.envFile)
	if err != nil {
		return err
	}

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[viperKey]
		if len(keys) == 0 || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(keys[0], f)
	})
	if bindErr != nil {
		return fmt.Errorf("bind flags: %w", bindErr)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

// stringFlag declares a string flag bound to a config key. The flag has no
// default of its own so an unset flag never shadows the config.
func stringFlag(flags *pflag.FlagSet, name, key, usage string) {
	flags.String(name, "", usage)
	_ = flags.SetAnnotation(name, viperKey, []string{key})
}

// uintFlag declares a uint64 flag bound to a config key.
func uintFlag(flags *pflag.FlagSet, name, key, usage string) {
	flags.Uint64(name, 0, usage)
	_ = flags.SetAnnotation(name, viperKey, []string{key})
}
