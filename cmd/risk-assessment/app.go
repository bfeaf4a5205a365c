package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	awsclient "risk-assessment/internal/common/aws"
	"risk-assessment/internal/common/config"
	"risk-assessment/internal/common/database"
	apperrors "risk-assessment/internal/common/errors"
	commonhttp "risk-assessment/internal/common/http"
	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/generator"
	"risk-assessment/internal/model"
	"risk-assessment/internal/report"
	"risk-assessment/internal/retriever"
	riskassessment "risk-assessment/internal/workers/risk-assessment"
)

const queryTimeout = 30 * time.Second

// app holds the configuration and the lazily opened connections shared by
// the commands.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger

	pgOnce sync.Once
	pg     *database.PostgresClient
	pgErr  error

	closers []func() error
}

func newApp(cfg *config.Config, zapLog *zap.Logger) *app {
	return &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    logger.NewZapAdapter(zapLog),
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = a.zapLog.Sync()
}

func (a *app) postgres(ctx context.Context) (*database.PostgresClient, error) {
	a.pgOnce.Do(func() {
		pg, err := database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			a.pgErr = err
			return
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			a.pgErr = err
			return
		}
		a.pg = pg
		a.closers = append(a.closers, pg.Close)
	})
	return a.pg, a.pgErr
}

// generator builds the text generator, applying profile over the configured
// settings. It returns the effective prompt sample size.
func (a *app) generator(ctx context.Context, profile *model.Artifact) (*generator.TextGenerator, int) {
	gcfg := generator.LoadConfig(a.cfg)
	sampleRows := profile.Apply(gcfg, a.cfg.Generator.SampleRows)

	var cache generator.Cache
	if a.cfg.Cache.Enabled {
		rdb := database.NewRedis(a.cfg.Database.Redis)
		if err := rdb.Ping(ctx); err != nil {
			a.log.Warn("completion cache disabled", map[string]interface{}{
				"error": apperrors.NewCacheUnavailableError(err).Details,
			})
			rdb.Close()
		} else {
			cache = rdb
			a.closers = append(a.closers, rdb.Close)
		}
	}

	userAgent := fmt.Sprintf("%s/%s", a.cfg.App.Name, a.cfg.App.Version)
	doer := commonhttp.NewClient(0, userAgent)

	return generator.New(gcfg, doer, cache, a.log), sampleRows
}

// profile loads the artifact at path, or returns nil when path is empty.
func (a *app) profile(path string) *model.Artifact {
	if path == "" {
		return nil
	}
	return model.LoadModel(path, a.log)
}

func (a *app) retrievers(ctx context.Context) riskassessment.RetrieverFactory {
	return func(source, path string) (retriever.Retriever, error) {
		switch source {
		case config.SourceCSV:
			return retriever.NewCSVRetriever(path, a.log), nil
		case config.SourcePostgres:
			pg, err := a.postgres(ctx)
			if err != nil {
				return nil, err
			}
			return retriever.NewPostgresRetriever(pg.DB, a.cfg.Data.Table, a.cfg.Data.Query, queryTimeout, a.log)
		default:
			return nil, fmt.Errorf("unknown data source %q", source)
		}
	}
}

// publisher wires every enabled sink. A sink that cannot be set up is
// logged and left out.
func (a *app) publisher(ctx context.Context) *report.Publisher {
	var sinks []report.Sink

	if a.cfg.Sinks.Postgres.Enabled {
		if sink, err := a.postgresSink(ctx); err != nil {
			a.log.Warn("postgres report sink disabled", map[string]interface{}{"error": err.Error()})
		} else {
			sinks = append(sinks, sink)
		}
	}

	if a.cfg.Sinks.Elasticsearch.Enabled {
		if sink, err := a.elasticsearchSink(ctx); err != nil {
			a.log.Warn("elasticsearch report sink disabled", map[string]interface{}{"error": err.Error()})
		} else {
			sinks = append(sinks, sink)
		}
	}

	notifications := a.cfg.Notifications
	if notifications.SNS.Enabled || notifications.Email.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, notifications.AWS.Region)
		if err != nil {
			a.log.Warn("notifications disabled", map[string]interface{}{"error": err.Error()})
		} else {
			if notifications.SNS.Enabled {
				sinks = append(sinks, report.NewSNSNotifier(awsclient.NewSNSClient(awsCfg), notifications.SNS.TopicARN))
			}
			if notifications.Email.Enabled {
				sinks = append(sinks, report.NewEmailNotifier(awsclient.NewSESClient(awsCfg), notifications.Email.FromEmail, notifications.Email.To))
			}
		}
	}

	return report.NewPublisher(a.log, sinks...)
}

func (a *app) postgresSink(ctx context.Context) (*report.PostgresStore, error) {
	pg, err := a.postgres(ctx)
	if err != nil {
		return nil, err
	}
	store, err := report.NewPostgresStore(pg.DB, a.cfg.Sinks.Postgres.Table)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) elasticsearchSink(ctx context.Context) (*report.ElasticsearchIndexer, error) {
	es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
	if err != nil {
		return nil, err
	}
	if err := es.Ping(ctx); err != nil {
		return nil, err
	}
	return report.NewElasticsearchIndexer(es.Client, a.cfg.Sinks.Elasticsearch.Index), nil
}
