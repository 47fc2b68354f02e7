package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/thanhnp/poa-ledger/internal/config"
	"github.com/thanhnp/poa-ledger/internal/ledger"
	"github.com/thanhnp/poa-ledger/internal/storage"
	"github.com/thanhnp/poa-ledger/internal/sync"
)

func main() {
	os.Exit(run())
}

// run adopts the longest valid chain among the configured peers once and
// exits. The node must not be serving while this runs.
func run() int {

	// Command line parameter initialization.
	var (
		flagConfig string
		flagName   string
		flagPeers  []string
		flagLevel  string
	)

	pflag.StringVarP(&flagConfig, "config", "c", "config.yaml", "path to configuration file")
	pflag.StringVarP(&flagName, "name", "n", "", "node name the chain is persisted under")
	pflag.StringSliceVarP(&flagPeers, "peer", "P", nil, "peer base URL to sync from (repeatable)")
	pflag.StringVarP(&flagLevel, "level", "l", "info", "log output level")

	pflag.Parse()

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(flagLevel)
	if err != nil {
		log.Error().Str("level", flagLevel).Err(err).Msg("could not parse log level")
		return 1
	}
	log = log.Level(level)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		log.Error().Str("config", flagConfig).Err(err).Msg("could not load configuration")
		return 1
	}
	if flagName != "" {
		cfg.Node.Name = flagName
	}
	if len(flagPeers) > 0 {
		cfg.Peers = flagPeers
	}

	stores, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Error().Str("path", cfg.Storage.Path).Err(err).Msg("could not open storage")
		return 1
	}
	defer stores.Close()

	persisted, err := stores.PersistedHeight(cfg.Node.Name)
	if err != nil {
		log.Error().Err(err).Msg("could not read persisted height")
		return 1
	}
	log.Info().Int("persisted", persisted).Strs("peers", cfg.Peers).Msg("starting sync round")

	l, err := ledger.New(log, cfg.Node.Name, stores.Snapshots)
	if err != nil {
		log.Error().Err(err).Msg("could not initialize ledger")
		return 1
	}

	var options []sync.Option
	if stores.Sync != nil {
		options = append(options, sync.WithStateStore(stores.Sync))
	}
	syncer := sync.NewSyncer(log, l, cfg.Peers, options...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = syncer.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sync round incomplete")
	}

	height, herr := l.Height()
	if herr != nil {
		log.Error().Err(herr).Msg("could not read height")
		return 1
	}
	log.Info().Int("height", height).Msg("sync round finished")

	if err != nil {
		return 1
	}
	return 0
}
