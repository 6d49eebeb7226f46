package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"contactsync/internal/contactsync"
	"contactsync/internal/contactsync/models"
	jwttoken "contactsync/internal/jwt_token"
	"contactsync/internal/platform/config"
	"contactsync/internal/platform/httpserver"
	"contactsync/internal/platform/logger"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// cli carries the configuration resolved before any subcommand runs.
type cli struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:           "contactsync",
		Short:         "Mirror Odoo contacts into a local database and serve them over HTTP",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			c.logger = logger.New(cfg.Log)
			slog.SetDefault(c.logger)
			return nil
		},
	}

	root.PersistentFlags().String("database-url", "", "Database URL (postgres://… or sqlite://path), overrides POSTGRES_URL")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")
	_ = c.v.BindPFlag("postgres_url", root.PersistentFlags().Lookup("database-url"))
	_ = c.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	serve := c.serveCmd()
	root.AddCommand(serve, c.syncCmd(), c.migrateCmd(), c.tokenCmd())
	root.RunE = serve.RunE
	return root
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the sync scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().String("http-addr", "", "Listen address, overrides HTTP_ADDR")
	_ = c.v.BindPFlag("http_addr", cmd.Flags().Lookup("http-addr"))
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(c.cfg.Server, a.handler())
	g, gctx := errgroup.WithContext(ctx)

	if err := a.orchestrator.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		c.logger.Info("starting http server", "addr", c.cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		a.orchestrator.Stop()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print the run report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.close()

			run, runErr := a.orchestrator.RunOnce(ctx, models.TriggerCLI)
			if run != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(run); err != nil {
					return err
				}
			}
			if errors.Is(runErr, contactsync.ErrRunInProgress) {
				return fmt.Errorf("another replica is syncing: %w", runErr)
			}
			return runErr
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the contact and run history tables if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, contacts, runs, err := openStores(ctx, c.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrate(ctx, contacts, runs); err != nil {
				return err
			}
			c.logger.InfoContext(ctx, "schema up to date", "dialect", db.Dialect)
			return nil
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token signed with API_JWT_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Server.JWTSigningKey == "" {
				return errors.New("API_JWT_SIGNING_KEY is not set")
			}
			svc := jwttoken.NewJWTService(c.cfg.Server.JWTSigningKey, tokenIssuer, tokenAudience)
			token, err := svc.GenerateToken(subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
