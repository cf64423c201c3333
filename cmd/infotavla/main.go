package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/yegors/infotavla/internal/api"
	"github.com/yegors/infotavla/internal/config"
	"github.com/yegors/infotavla/internal/dashboard"
	"github.com/yegors/infotavla/internal/display"
	"github.com/yegors/infotavla/internal/metrics"
	"github.com/yegors/infotavla/internal/source"
	"github.com/yegors/infotavla/internal/websocket"
	"github.com/yegors/infotavla/pkg/logger"
	"golang.org/x/time/rate"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "infotavla",
		Short:         "Wall dashboard for clock, weather and departures",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (optional - will search in configs/ and root directory)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh the dashboard and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	var output string
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run every pipeline once and print the resulting display",
		RunE: func(cmd *cobra.Command, args []string) error {
			return once(cmd.Context(), configPath, output, cmd.OutOrStdout())
		},
	}
	onceCmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}

	rootCmd.AddCommand(serveCmd, onceCmd, versionCmd)
	return rootCmd
}

// setup loads and validates configuration and builds the logger
func setup(configPath string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating logger: %w", err)
	}
	return cfg, log, nil
}

// newOrchestrator wires the source client and the display into an orchestrator
func newOrchestrator(cfg *config.Config, disp *display.Display, collector *metrics.Collector, log *logger.Logger) (*dashboard.Orchestrator, *source.Client, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	client := source.NewClient(source.Config{
		BaseURL:                 cfg.Source.BaseURL,
		RequestTimeout:          cfg.Source.RequestTimeout(),
		BreakerFailureThreshold: uint32(cfg.Source.BreakerFailureThreshold),
		BreakerOpenTimeout:      cfg.Source.BreakerOpenTimeout(),
	}, log)

	opts := []dashboard.Option{
		dashboard.WithClock(func() time.Time { return time.Now().In(loc) }),
	}
	if collector != nil {
		opts = append(opts, dashboard.WithMetrics(collector))
	}

	return dashboard.New(client, disp, log, opts...), client, nil
}

func serve(parent context.Context, configPath string) error {
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting infotavla",
		logger.String("version", Version),
		logger.String("config_path", configPath),
		logger.String("source", cfg.Source.BaseURL),
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		registry  *prometheus.Registry
		gatherer  prometheus.Gatherer
		collector *metrics.Collector
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewCollector(cfg.Metrics.Namespace, registry)
		gatherer = registry
	}

	disp := display.NewDisplay(display.DefaultRegions()...)

	orchestrator, client, err := newOrchestrator(cfg, disp, collector, log)
	if err != nil {
		return err
	}

	// Manual refreshes from HTTP and WebSocket share one budget
	limiter := rate.NewLimiter(rate.Limit(cfg.API.RefreshPerSecond), cfg.API.RefreshBurst)
	refreshTimeout := cfg.Source.RequestTimeout() + time.Second

	wsServer := websocket.NewServer(log)
	wsServer.SetSnapshot(func() *websocket.Message {
		return websocket.SnapshotMessage(disp.Snapshot())
	})
	wsServer.SetMessageHandler(websocket.NewRefreshHandler(orchestrator, limiter, refreshTimeout, log))
	if collector != nil {
		wsServer.OnClientCount(func(n int) { collector.WebSocketClients.Set(float64(n)) })
	}
	disp.Subscribe(func(r display.Region) {
		if collector != nil {
			collector.RecordRegionUpdate(string(r.ID))
		}
		wsServer.Broadcast(websocket.RegionMessage(r))
	})
	go wsServer.Run(ctx)

	handler := api.NewHandler(orchestrator, disp, limiter, refreshTimeout, log)
	static := api.NewStaticFileHandler(cfg.Server.StaticFilesDir, log)
	router := api.NewRouter(handler, static, wsServer.HandleConnection, gatherer, collector, log)

	if err := orchestrator.Start(ctx); err != nil {
		return err
	}
	for _, name := range source.Names() {
		log.Debug("Upstream breaker", logger.String("source", string(name)), logger.String("state", client.BreakerState(name)))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("HTTP server error", logger.String("addr", server.Addr), logger.Error(err))
		runErr = err
	}

	log.Info("Stopping dashboard refresh...")
	orchestrator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.String("addr", server.Addr), logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete", logger.String("addr", server.Addr))
	}

	stop()
	log.Info("Server fully stopped")
	return runErr
}

func once(ctx context.Context, configPath, output string, w io.Writer) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}

	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	disp := display.NewDisplay(display.DefaultRegions()...)
	orchestrator, _, err := newOrchestrator(cfg, disp, nil, log)
	if err != nil {
		return err
	}

	runErr := orchestrator.RunAll(ctx)
	if runErr != nil {
		log.Warn("Some pipelines failed", logger.Error(runErr))
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"regions":   disp.Snapshot(),
			"pipelines": orchestrator.Status(),
		}); err != nil {
			return err
		}
	} else {
		printRegions(w, disp.Snapshot())
	}
	return runErr
}

func printRegions(w io.Writer, regions []display.Region) {
	for _, r := range regions {
		switch r.Kind {
		case display.KindImage:
			fmt.Fprintf(w, "%-14s %s\n", r.ID, r.Content.Src)
		case display.KindContainer:
			fmt.Fprintf(w, "%s\n", r.ID)
			for _, e := range r.Content.Children {
				if e.Tag == "hr" {
					fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 24))
					continue
				}
				line := e.Text
				if len(e.Classes) > 1 {
					line += "  [" + strings.Join(e.Classes[1:], " ") + "]"
				}
				fmt.Fprintf(w, "  %s\n", line)
			}
		default:
			fmt.Fprintf(w, "%-14s %s\n", r.ID, r.Content.Text)
		}
	}
}
