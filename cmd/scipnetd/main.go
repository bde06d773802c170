package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/scipnet/internal/config"
	"github.com/danmuck/scipnet/internal/deepwell"
	"github.com/danmuck/scipnet/internal/logging"
	"github.com/danmuck/scipnet/internal/observability"
	"github.com/danmuck/scipnet/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath  string
		metricsAddr string
		initTables  bool
		seedDemo    bool
	)
	flag.StringVar(&configPath, "config", "", "path to daemon config TOML")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "expose prometheus metrics on this address")
	flag.BoolVar(&initTables, "init", false, "create deepwell tables if missing")
	flag.BoolVar(&seedDemo, "seed", false, "load demo records (implies -init)")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.InitLogger("scipnetd")

	cfg := config.DefaultServerConfig()
	if configPath != "" {
		loaded, err := config.LoadServerConfig(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load daemon config")
		}
		cfg = loaded
		log.Info().Str("path", configPath).Msg("loaded daemon config")
	}

	store, err := deepwell.Open(cfg.DeepwellPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DeepwellPath).Msg("failed to open deepwell")
	}
	defer store.Close()

	if initTables || seedDemo {
		if err := store.Init(); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize deepwell")
		}
	}
	if seedDemo {
		if err := store.SeedDemo(); err != nil {
			log.Fatal().Err(err).Msg("failed to seed deepwell")
		}
		log.Info().Msg("deepwell demo records loaded")
	}

	if metricsAddr != "" {
		observability.RegisterMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("metrics endpoint stopped")
			}
		}()
		log.Info().Str("addr", metricsAddr).Msg("metrics endpoint up")
	}

	svc := server.NewService(store, server.ServiceConfig{ListenAddr: cfg.Addr})
	log.Info().Str("addr", cfg.Addr).Str("deepwell", cfg.DeepwellPath).Msg("scipnetd started")
	if err := svc.Run(); err != nil {
		log.Fatal().Err(err).Msg("scipnetd stopped")
	}
}
