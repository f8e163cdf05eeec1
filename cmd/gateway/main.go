// cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"factorypulse-gateway/internal/alerting"
	"factorypulse-gateway/internal/anomaly"
	"factorypulse-gateway/internal/api"
	"factorypulse-gateway/internal/auth"
	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/diagnostic"
	"factorypulse-gateway/internal/engine"
	"factorypulse-gateway/internal/kafka"
	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/simulator"
	"factorypulse-gateway/internal/storage"
	"factorypulse-gateway/internal/websocket"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "FactoryPulse monitoring gateway",
	Long: `Simulates factory sensor readings, raises alerts when a metric crosses
into its critical band and serves the dashboard API and live feed.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), configPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(newHashPasswordCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Path to the configuration file directory")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Duration("interval", 0, "Evaluation interval, overrides engine.interval")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("engine.interval", rootCmd.PersistentFlags().Lookup("interval"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.WithComponent("main")

	// --- Initialize Components ---
	hub := websocket.NewHub()
	// the hub hears raises and dismissals under the registry lock, in order
	registry := alerting.NewRegistry(hub)
	alerter := alerting.NewAlerter()

	var publisher *kafka.AlertPublisher
	if cfg.Kafka.Enabled {
		var err error
		publisher, err = kafka.NewAlertPublisher(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		alerter.AddSink(publisher)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing alerts to kafka")
	}
	alerter.Start()
	// queued alerts must reach kafka before its writer closes
	stopDelivery := func() {
		alerter.Stop()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("close kafka publisher")
			}
		}
	}
	defer stopDelivery()

	eng := engine.New(engine.Config{
		Source:   simulator.NewUniform(cfg),
		Detector: anomaly.NewDetector(cfg),
		Registry: registry,
		Interval: cfg.Engine.Interval,
	})
	if err := eng.Observe(func(readings []data.BandedReading, raised []data.Alert) {
		hub.BroadcastReadings(readings)
		alerter.Enqueue(raised)
	}); err != nil {
		return err
	}

	apiHandler := api.NewAPIHandler(api.Deps{
		Registry: registry,
		Engine:   eng,
		Matcher:  diagnostic.NewDefaultMatcher(),
		Store:    storage.NewSeededStore(),
		Hub:      hub,
		Auth:     auth.NewAuthManager(cfg.Auth),
	})

	// --- Start WebSocket Hub ---
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// --- Setup HTTP Servers ---
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.APIPort),
		Handler: api.SetupAPIRouter(apiHandler),
	}
	opsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.OpsPort),
		Handler: api.SetupOpsRouter(apiHandler),
	}

	errCh := make(chan error, 2)
	serve := func(name string, srv *http.Server) {
		log.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go serve("api", apiServer)
	go serve("ops", opsServer)

	if err := eng.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("server failed")
	}

	// --- Graceful Shutdown ---
	eng.Stop()
	stopDelivery()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for name, srv := range map[string]*http.Server{"api": apiServer, "ops": opsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Str("server", name).Msg("shutdown")
		}
	}
	stopHub()

	log.Info().Int("active_alerts", registry.Len()).Msg("gateway stopped")
	return runErr
}
