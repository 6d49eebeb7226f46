package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"contactsync/internal/contacts"
	contactstore "contactsync/internal/contacts/store"
	"contactsync/internal/contactsync"
	synchandler "contactsync/internal/contactsync/handler"
	syncmetrics "contactsync/internal/contactsync/metrics"
	runstore "contactsync/internal/contactsync/store"
	jwttoken "contactsync/internal/jwt_token"
	"contactsync/internal/odoo"
	"contactsync/internal/platform/config"
	"contactsync/internal/platform/database"
	"contactsync/internal/platform/kafka"
	"contactsync/internal/platform/metrics"
	"contactsync/internal/platform/middleware"
	redisclient "contactsync/internal/platform/redis"
	httptransport "contactsync/internal/transport/http"
)

const (
	tokenIssuer   = "contactsync"
	tokenAudience = "contactsync-api"

	topicPartitions  = 1
	topicReplication = 1
)

// app owns every long-lived dependency of the process.
type app struct {
	cfg          config.Config
	logger       *slog.Logger
	db           *database.DB
	contacts     *contactstore.SQLStore
	runs         *runstore.SQLStore
	redis        *redisclient.Client
	producer     *kafka.Producer
	registry     *prometheus.Registry
	orchestrator *contactsync.Orchestrator
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var err error
	a.db, a.contacts, a.runs, err = openStores(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, a.contacts, a.runs); err != nil {
		a.close()
		return nil, err
	}

	opts := []contactsync.Option{
		contactsync.WithCredentials(odoo.Credentials{
			Database: cfg.Odoo.Database,
			Username: cfg.Odoo.Username,
			Secret:   cfg.Odoo.APIKey,
		}),
		contactsync.WithInterval(cfg.Sync.Interval),
		contactsync.WithRunTimeout(cfg.Sync.RunTimeout),
		contactsync.WithRunOnStartup(cfg.Sync.OnStartup),
		contactsync.WithMalformedPolicy(contactsync.MalformedPolicy(cfg.Sync.MalformedRecords)),
		contactsync.WithLogger(logger),
		contactsync.WithMetrics(syncmetrics.New(a.registry)),
		contactsync.WithRunRecorder(a.runs),
	}

	a.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if a.redis != nil {
		opts = append(opts, contactsync.WithDistributedLocker(redisclient.NewLocker(a.redis.Client, "")))
		logger.InfoContext(ctx, "distributed run lock enabled")
	}

	a.producer, err = kafka.New(ctx, cfg.Kafka)
	if err != nil {
		a.close()
		return nil, err
	}
	if a.producer != nil {
		if err := a.producer.EnsureTopic(ctx, topicPartitions, topicReplication); err != nil {
			logger.WarnContext(ctx, "could not ensure run event topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		opts = append(opts, contactsync.WithPublisher(contactsync.NewEventPublisher(a.producer)))
		logger.InfoContext(ctx, "run events enabled", "topic", cfg.Kafka.Topic)
	}

	remote := odoo.New(cfg.Odoo, odoo.WithLogger(logger))
	a.orchestrator = contactsync.New(remote, a.contacts, opts...)
	return a, nil
}

// handler builds the HTTP surface over the app's stores and orchestrator.
func (a *app) handler() http.Handler {
	var validator middleware.TokenValidator
	if a.cfg.Server.JWTSigningKey != "" {
		validator = jwttoken.NewSubjectValidator(
			jwttoken.NewJWTService(a.cfg.Server.JWTSigningKey, tokenIssuer, tokenAudience),
		)
	}

	health := []httptransport.HealthCheck{{Name: "database", Check: a.db.PingContext}}
	if a.redis != nil {
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: a.redis.Health})
	}

	contactService := contacts.NewService(a.contacts)
	return httptransport.NewRouter(httptransport.RouterDeps{
		Logger:    a.logger,
		Metrics:   metrics.New(a.registry),
		Gatherer:  a.registry,
		Validator: validator,
		Health:    health,
		Modules: []httptransport.Registrar{
			contacts.NewHandler(contactService, a.logger),
			synchandler.New(a.orchestrator, a.runs, a.logger),
		},
	})
}

func (a *app) close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg config.Database) (*database.DB, *contactstore.SQLStore, *runstore.SQLStore, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return db, contactstore.NewSQL(db), runstore.NewSQL(db), nil
}

func migrate(ctx context.Context, contacts *contactstore.SQLStore, runs *runstore.SQLStore) error {
	if err := contacts.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate contacts: %w", err)
	}
	if err := runs.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate run history: %w", err)
	}
	return nil
}
