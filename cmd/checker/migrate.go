package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opium-checker/internal/storage/migrations"
	pgstore "opium-checker/internal/storage/postgres"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the decision store schemas",
		Long:  "Apply the embedded PostgreSQL and ClickHouse migrations for every configured DSN.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := root.cfg
			logger := root.logger

			if cfg.Postgres.DSN == "" && cfg.Clickhouse.DSN == "" {
				return fmt.Errorf("nothing to migrate: set postgres.dsn and/or clickhouse.dsn")
			}

			if cfg.Postgres.DSN != "" {
				pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
				if err != nil {
					return fmt.Errorf("connect to postgres: %w", err)
				}
				defer pool.Close()
				if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
					return err
				}
				logger.Info("postgres migrations applied")
			}

			if cfg.Clickhouse.DSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
				if err != nil {
					return err
				}
				defer conn.Close()
				logger.Info("clickhouse migrations applied")
			}
			return nil
		},
	}
	stringFlag(cmd.Flags(), "postgres-dsn", "postgres.dsn", "PostgreSQL DSN")
	stringFlag(cmd.Flags(), "clickhouse-dsn", "clickhouse.dsn", "ClickHouse DSN")
	return cmd
}
