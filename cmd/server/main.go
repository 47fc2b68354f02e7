package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/thanhnp/poa-ledger/internal/api"
	"github.com/thanhnp/poa-ledger/internal/auth"
	"github.com/thanhnp/poa-ledger/internal/config"
	"github.com/thanhnp/poa-ledger/internal/ledger"
	"github.com/thanhnp/poa-ledger/internal/metrics"
	"github.com/thanhnp/poa-ledger/internal/storage"
	"github.com/thanhnp/poa-ledger/internal/sync"
)

func main() {
	os.Exit(run())
}

func run() int {

	// Command line parameter initialization.
	var (
		flagConfig string
		flagName   string
		flagPort   int
		flagLevel  string
	)

	pflag.StringVarP(&flagConfig, "config", "c", "config.yaml", "path to configuration file")
	pflag.StringVarP(&flagName, "name", "n", "", "node name the chain is persisted under")
	pflag.IntVarP(&flagPort, "port", "p", 0, "port to serve the HTTP API on")
	pflag.StringVarP(&flagLevel, "level", "l", "", "log output level")

	pflag.Parse()

	// Logger initialization; the level is applied once the configuration is known.
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := loadConfig(flagConfig, flagName, flagPort, flagLevel)
	if err != nil {
		log.Error().Err(err).Str("config", flagConfig).Msg("could not load configuration")
		return 1
	}

	log, err = nodeLogger(log, cfg)
	if err != nil {
		log.Error().Str("level", cfg.Log.Level).Err(err).Msg("could not parse log level")
		return 1
	}

	// Storage initialization.
	stores, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Error().Str("backend", cfg.Storage.Backend).Str("path", cfg.Storage.Path).Err(err).Msg("could not open storage")
		return 1
	}

	if persisted, err := stores.PersistedHeight(cfg.Node.Name); err != nil {
		log.Warn().Err(err).Msg("could not read persisted height")
	} else if persisted < 0 {
		log.Info().Msg("no persisted chain, a genesis block will be seeded")
	}

	validators := auth.NewValidatorSet(cfg.Validators...)
	if validators.Len() == 0 {
		log.Warn().Msg("no validators configured, pending blocks can not be confirmed")
	}

	collector := metrics.NewCollector(cfg.Node.Name)
	l, err := ledger.New(log, cfg.Node.Name, stores.Snapshots,
		ledger.WithAuthorizer(validators),
		ledger.WithMetrics(collector),
	)
	if err != nil {
		log.Error().Err(err).Msg("could not initialize ledger")
		_ = stores.Close()
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Replication from peers, if enabled.
	var syncer *sync.Syncer
	if cfg.Sync.Enabled && len(cfg.Peers) > 0 {
		options := []sync.Option{
			sync.WithInterval(cfg.SyncInterval()),
			sync.WithMetrics(collector),
		}
		if stores.Sync != nil {
			options = append(options, sync.WithStateStore(stores.Sync))
		}
		syncer = sync.NewSyncer(log, l, cfg.Peers, options...)
		if err := syncer.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("could not start syncer")
			syncer = nil
		}
	}

	router := api.NewRouter(log, l, collector.Handler())
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// This section launches the HTTP server in its own goroutine. Afterwards,
	// we wait for an interrupt signal or a server failure.
	failed := make(chan struct{})
	go func() {
		log.Info().Str("address", server.Addr).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			close(failed)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	status := 0
	select {
	case <-sig:
		log.Info().Msg("shutting down")
	case <-failed:
		status = 1
	}

	go func() {
		<-sig
		log.Warn().Msg("forcing exit")
		os.Exit(1)
	}()

	// Cancel context to stop the syncer, then drain the server and close storage.
	cancel()

	var result *multierror.Error
	if syncer != nil {
		if err := syncer.Stop(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}

	if err := stores.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Error().Err(err).Msg("unclean shutdown")
		return 1
	}

	log.Info().Msg("server stopped")
	return status
}

// loadConfig loads the configuration file; flags win over file and environment.
func loadConfig(path, name string, port int, level string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		cfg.Node.Name = name
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// nodeLogger tags log with the node name and applies the configured level.
func nodeLogger(log zerolog.Logger, cfg *config.Config) (zerolog.Logger, error) {
	log = log.With().Str("node", cfg.Node.Name).Logger()
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return log, err
	}
	return log.Level(level), nil
}
