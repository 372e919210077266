package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/directory/gormdir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime holds the state shared by every subcommand of one invocation.
type runtime struct {
	configPath    string
	redisAddr     string
	directoryFile string
	database      gormdir.Config

	cfg    seedauth.Config
	logger *zap.Logger

	client   redis.UniversalClient
	embedded *miniredis.Miniredis
	engine   *seedauth.Engine
	closers  []func()
}

func (r *runtime) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&r.configPath, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&r.redisAddr, "redis-addr", "", "redis address; REDIS_ADDR or an embedded miniredis when empty")
	flags.StringVar(&r.directoryFile, "directory", "", "identity file loaded into an in-memory directory")
	flags.StringVar(&r.database.Dialect, "db-dialect", "sqlite", "gormdir dialect: sqlite, postgres or mysql")
	flags.StringVar(&r.database.Datasource, "db-dsn", "", "gormdir datasource; enables the relational directory")
}

// prepare loads the configuration and the logger.
func (r *runtime) prepare() error {
	cfg, err := seedauth.LoadConfig(r.configPath)
	if err != nil {
		return err
	}
	logger, err := seedauth.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.logger = logger
	r.closers = append(r.closers, func() { _ = logger.Sync() })
	return nil
}

func (r *runtime) redis() (redis.UniversalClient, error) {
	if r.client != nil {
		return r.client, nil
	}

	addr := r.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start embedded redis: %w", err)
		}
		r.embedded = mr
		r.closers = append(r.closers, mr.Close)
		addr = mr.Addr()
		r.logger.Warn("using embedded redis; sessions are lost on exit", zap.String("addr", addr))
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	r.client = client
	r.closers = append(r.closers, func() { _ = client.Close() })
	return client, nil
}

func (r *runtime) directory(ctx context.Context) (seedauth.UserDirectory, error) {
	switch {
	case r.directoryFile != "" && r.database.Datasource != "":
		return nil, errors.New("--directory and --db-dsn are mutually exclusive")
	case r.directoryFile != "":
		return loadDirectoryFile(r.directoryFile)
	case r.database.Datasource != "":
		db, err := gormdir.Open(r.database)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			r.closers = append(r.closers, func() { _ = sqlDB.Close() })
		}
		dir := gormdir.New(db)
		if err := dir.Migrate(ctx); err != nil {
			return nil, err
		}
		return dir, nil
	default:
		return nil, nil
	}
}

// build wires an engine on top of the configured redis and directory.
func (r *runtime) build(ctx context.Context) (*seedauth.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	client, err := r.redis()
	if err != nil {
		return nil, err
	}

	b := seedauth.New().WithConfig(r.cfg).WithRedis(client).WithLogger(r.logger)
	dir, err := r.directory(ctx)
	if err != nil {
		return nil, err
	}
	if dir != nil {
		b = b.WithDirectory(dir)
	}

	engine, err := b.Build()
	if err != nil {
		return nil, err
	}
	r.engine = engine
	r.closers = append(r.closers, engine.Close)
	return engine, nil
}

// close releases resources in reverse acquisition order.
func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// run wraps fn with prepare and close.
func (r *runtime) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := r.prepare(); err != nil {
			return err
		}
		defer r.close()
		return fn(cmd, args)
	}
}
