package main

import (
	// Go Internal Packages
	"context"
	"io"
	"sync"

	// Local Packages
	config "bankfeed/config"
	errors "bankfeed/errors"
	helpers "bankfeed/helpers"
	logger "bankfeed/logger"
	metrics "bankfeed/metrics"
	promcollector "bankfeed/metrics/prometheus"
	bankapi "bankfeed/repositories/bankapi"
	mongodb "bankfeed/repositories/mongodb"
	redisrepo "bankfeed/repositories/redis"
	tokens "bankfeed/repositories/tokens"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// app holds what every command shares. Archive and dead-letter stores are connected on first use.
type app struct {
	k        *koanf.Koanf
	conf     config.Config
	logger   *zap.Logger
	out      io.Writer
	jsonOut  bool
	tokens   tokens.Store
	api      *bankapi.Client
	metrics  metrics.Collector
	registry *prometheus.Registry

	closeOnce sync.Once
	closers   []func()
}

func newApp(configPath string, jsonOut bool, out io.Writer) (*app, error) {
	k, conf, err := config.Load(configPath)
	if err != nil {
		return nil, errors.E(errors.Invalid, "cannot load config", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.E(errors.Invalid, "invalid configuration", err)
	}

	log, err := logger.New(conf.Logger.Level, conf.Application, conf.Logger.Output)
	if err != nil {
		return nil, errors.E(errors.Internal, "cannot build logger", err)
	}

	a := &app{k: k, conf: conf, logger: log, out: out, jsonOut: jsonOut, metrics: metrics.NoOpCollector{}}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if conf.API.Token != "" {
		a.tokens = tokens.NewMemoryStore(conf.API.Token)
	} else if a.tokens, err = tokens.NewFileStore(conf.API.TokenFile); err != nil {
		return nil, err
	}

	if conf.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector := promcollector.NewCollector(conf.Metrics.Namespace)
		if err := collector.Register(a.registry); err != nil {
			return nil, errors.E(errors.Internal, "cannot register metrics", err)
		}
		a.metrics = collector
	}

	a.api = bankapi.New(conf.API, a.tokens, log, bankapi.WithMetrics(a.metrics))
	return a, nil
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
	})
}

// archive connects to MongoDB when the archive is enabled. It returns nil, nil when disabled.
func (a *app) archive(ctx context.Context) (*mongodb.TxRepository, error) {
	if !a.conf.Mongo.Enabled {
		return nil, nil
	}
	client, err := mongodb.Connect(ctx, a.conf.Mongo.URI)
	if err != nil {
		return nil, errors.UnavailableErr("mongo connect", err)
	}
	a.closers = append(a.closers, func() { disconnectMongo(client) })
	return mongodb.NewTxRepository(client, a.conf.Mongo.Database), nil
}

func disconnectMongo(client *mongo.Client) {
	_ = client.Disconnect(context.Background())
}

// deadLetters connects to Redis when the dead-letter list is enabled. It returns nil, nil when disabled.
func (a *app) deadLetters(ctx context.Context) (*redisrepo.DeadLetterQueue, error) {
	if !a.conf.Redis.Enabled {
		return nil, nil
	}
	client, err := redisrepo.Connect(ctx, a.conf.Redis.URI, a.conf.Redis.Password)
	if err != nil {
		return nil, errors.UnavailableErr("redis connect", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return redisrepo.NewDeadLetterQueue(client, a.logger, a.conf.Redis.DLQKey, a.conf.Redis.DLQMaxLen), nil
}

// print writes v as JSON when --json is set, otherwise as a table.
func (a *app) print(v any, headers []string, rows [][]string) error {
	if a.jsonOut {
		return helpers.PrintStruct(a.out, v)
	}
	return helpers.PrintTable(a.out, headers, rows)
}
