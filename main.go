package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"mock-bus-app/admin"
	"mock-bus-app/api"
	"mock-bus-app/artemis"
	"mock-bus-app/cascade"
	"mock-bus-app/config"
	"mock-bus-app/i18n"
	"mock-bus-app/logger"
	"mock-bus-app/metrics"
	"mock-bus-app/reconciler"
	"mock-bus-app/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

var version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	localesDir := flag.String("locales", "locales", "path to translations directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogDir, version, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}
	log.Info("logger initialized successfully")
	log.Info("config loaded", "port", cfg.Port, "log_dir", cfg.LogDir, "db_path", cfg.DBPath,
		"jolokia_url", cfg.Artemis.JolokiaURL, "user_api_url", cfg.Artemis.UserAPIURL)

	i18nService, err := i18n.NewService(*localesDir, log)
	if err != nil {
		log.Error("failed to setup i18n service", "error", err)
		os.Exit(1)
	}

	dataStore, err := storage.NewStore(cfg.DBPath, log)
	if err != nil {
		log.Error("failed to create data store", "error", err)
		os.Exit(1)
	}
	defer dataStore.Close()
	log.Info("data store initialized")

	broker := artemis.NewClient(&cfg.Artemis, log)
	deleter := cascade.NewDeleter(dataStore, broker, log)
	guard := cascade.NewGuard(dataStore, broker, log)
	rec := reconciler.New(dataStore, broker, log)

	// Boot-time pass: provision whatever broker resources the metadata
	// tree expects. Failures are logged inside the pass; startup
	// continues regardless.
	rec.Run(context.Background())

	if cfg.ReconcileSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.ReconcileSchedule, func() {
			rec.Run(context.Background())
		})
		if err != nil {
			log.Error("failed to schedule periodic reconciliation", "schedule", cfg.ReconcileSchedule, "error", err)
		} else {
			c.Start()
			log.Info("periodic reconciliation scheduled", "schedule", cfg.ReconcileSchedule)
		}
	}

	mux := http.NewServeMux()
	adminHandler := admin.NewHandler(dataStore, broker, deleter, guard, rec, log, i18nService, version)
	apiHandler := api.NewHandler(dataStore, log, cfg.Artemis.AMQPPort)

	metrics.Register()

	mux.Handle("/admin", adminHandler)
	mux.Handle("/admin/", adminHandler)
	mux.Handle("/auth/oidc/token", apiHandler)
	mux.Handle("/applications/", apiHandler)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, "Mock Bus control plane is running. Use /admin to manage applications.")
	})

	log.Info("starting server", "port", cfg.Port)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
