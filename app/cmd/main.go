package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"uigen/app/config"
	"uigen/app/usecase"
	"uigen/internal/domain/entity"
	"uigen/internal/infrastructure/llm"
	"uigen/internal/infrastructure/logging"
	"uigen/internal/infrastructure/metrics"
	"uigen/internal/infrastructure/sandbox"
	"uigen/internal/infrastructure/stylesheet"
	"uigen/internal/infrastructure/transport"
	"uigen/internal/infrastructure/validator"
	"uigen/internal/infrastructure/web"
)

func main() {
	configPath := flag.String("config", os.Getenv("UIGEN_CONFIG"), "path to an HCL config file")
	flag.Parse()

	// load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// logger
	logger, err := logging.Init(cfg.Log)
	if err != nil {
		logger.Warn("log file unavailable, logging to stdout", "file", cfg.Log.File, "err", err)
	}

	// LLM client
	generator, err := llm.New(llm.Options{
		Provider:    llm.Provider(cfg.LLM.Provider),
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error("llm init failed", "err", err)
		os.Exit(1)
	}

	componentValidator, err := validator.NewComponentValidator()
	if err != nil {
		logger.Error("validator init failed", "err", err)
		os.Exit(1)
	}

	compiler := stylesheet.NewTailwindCompiler(stylesheet.Options{
		Binary:         cfg.Styles.Binary,
		Mode:           stylesheet.Mode(cfg.Styles.Mode),
		Prefix:         cfg.Styles.Prefix,
		DarkMode:       cfg.Styles.DarkMode,
		Minify:         cfg.Styles.Minify,
		Timeout:        cfg.Styles.Timeout,
		MaxOutputBytes: cfg.Styles.MaxOutputBytes,
		TempRoot:       cfg.Styles.TempDir,
	}, logger)

	runner := sandbox.NewNodeRunner(sandbox.Options{
		Binary:         cfg.Sandbox.Binary,
		Timeout:        cfg.Sandbox.Timeout,
		ScriptTimeout:  cfg.Sandbox.ScriptTimeout,
		MaxOutputBytes: cfg.Sandbox.MaxOutputBytes,
		MaxHeapMB:      cfg.Sandbox.MaxHeapMB,
	}, logger)

	// Usecases / services
	generatorSvc := usecase.NewGeneratorService(
		generator,
		componentValidator,
		compiler,
		entity.StyleConventions{ClassPrefix: cfg.Styles.Prefix, DarkMode: cfg.Styles.DarkMode},
		logger,
	)
	host := usecase.NewComponentHost(runner, logger)

	shell, err := web.NewShell(web.ShellOptions{
		Placeholder: usecase.TemplatePlaceholder,
		LoadError:   usecase.LoadErrorTemplate,
		MinPrompt:   entity.MinPromptLength,
	})
	if err != nil {
		logger.Error("web shell init failed", "err", err)
		os.Exit(1)
	}

	// Transport (HTTP handlers)
	handler := transport.NewComponentHandler(generatorSvc, host, shell, prometheus.DefaultRegisterer, logger)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	)(r)
	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)(corsHandler)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      recovered,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go func() {
			logger.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.StartMetricsServer(cfg.Metrics.Addr); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"llm_provider", cfg.LLM.Provider,
			"model", generator.Model(),
			"styles_mode", cfg.Styles.Mode,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			cancel()
		}
	}()

	// OS signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	// Shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}

	logger.Info("service stopped")
}
