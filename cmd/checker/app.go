package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"opium-checker/internal/chain"
	"opium-checker/internal/checker"
	"opium-checker/internal/config"
	"opium-checker/internal/publisher"
	"opium-checker/internal/runner"
	"opium-checker/internal/storage"
	chstore "opium-checker/internal/storage/clickhouse"
	"opium-checker/internal/storage/memory"
	pgstore "opium-checker/internal/storage/postgres"
	"opium-checker/internal/subgraph"
)

// app holds the components shared by the long-running commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	client   *ethclient.Client
	checker  *checker.Checker
	stores   *stores
	recorder *runner.Recorder

	closers []func()
}

// stores groups the decision log backends.
type stores struct {
	decisions   storage.DecisionStore
	evaluations storage.EvaluationStore
}

// newChecker dials every configured network and wires the checker.
// The returned client is the default network.
func newChecker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*checker.Checker, *ethclient.Client, func(), error) {
	if err := cfg.RequireChain(); err != nil {
		return nil, nil, nil, err
	}

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, nil, nil, err
	}
	clients := []*ethclient.Client{client}
	cleanup := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	networks := chain.NewNetworks(chain.NewContractReader(client))
	for name, url := range cfg.Chain.Networks {
		c, err := chain.Dial(ctx, url)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("network %s: %w", name, err)
		}
		clients = append(clients, c)
		networks.Add(name, chain.NewContractReader(c))
	}

	querier := subgraph.NewHTTPClient(cfg.Subgraph.URL,
		subgraph.WithTimeout(cfg.Subgraph.Timeout),
		subgraph.WithMaxRetries(cfg.Subgraph.MaxRetries),
	)
	fetcher := subgraph.NewFetcher(querier, cfg.Subgraph.Author, cfg.Subgraph.PageSize, logger.Named("subgraph"))

	c := checker.New(checker.Options{
		Fetcher:   fetcher,
		Networks:  networks,
		BatchSize: cfg.Checker.BatchSize,
		Logger:    logger.Named("checker"),
	})
	logger.Info("checker ready",
		zap.String("rpc_url", cfg.Chain.RPCURL),
		zap.Strings("networks", networks.Names()),
		zap.Int("batch_size", cfg.Checker.BatchSize),
	)
	return c, client, cleanup, nil
}

// createStores opens the configured stores. An empty DSN selects the
// in-memory implementation for that store.
func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	s := &stores{
		decisions:   memory.NewDecisionStore(),
		evaluations: memory.NewEvaluationStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Postgres.DSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		s.decisions = pgstore.NewDecisionStore(pool)
	}

	if cfg.Clickhouse.DSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		s.evaluations = chstore.NewEvaluationStore(conn)
	}

	return s, cleanup, nil
}

// newPublisher connects to Redis when configured. It returns nil when
// publishing is disabled.
func newPublisher(cfg *config.Config, logger *zap.Logger) (*publisher.Publisher, func(), error) {
	if cfg.Redis.URL == "" {
		return nil, func() {}, nil
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)

	pub, err := publisher.New(redisClient, cfg.Redis.Topic, logger.Named("publisher"))
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, err
	}
	return pub, func() {
		_ = pub.Close()
		_ = redisClient.Close()
	}, nil
}

// newApp wires everything serve and watch need.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	a := &app{cfg: opts.cfg, logger: opts.logger}

	c, client, closeChain, err := newChecker(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeChain)
	a.checker = c
	a.client = client

	s, closeStores, err := createStores(ctx, a.cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeStores)
	a.stores = s

	pub, closePub, err := newPublisher(a.cfg, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closePub)

	var decisionPub runner.DecisionPublisher
	if pub != nil {
		decisionPub = pub
	}
	a.recorder = runner.NewRecorder(s.decisions, s.evaluations, decisionPub, a.logger.Named("recorder"))
	return a, nil
}

// watcher builds the head-driven runner from the watch config.
func (a *app) watcher() (*runner.Watcher, error) {
	if err := a.cfg.RequireWatch(); err != nil {
		return nil, err
	}
	w := a.cfg.Watch
	heads := chain.NewHeadWatcher(a.cfg.Chain.WSURL, nil, a.logger.Named("heads"))
	task := runner.Task{
		UserArgs:   domainUserArgs(w),
		Connection: connection(w.Network),
	}
	return runner.NewWatcher(heads, a.checker, a.recorder, task, w.EveryBlocks, a.logger.Named("watch")), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
