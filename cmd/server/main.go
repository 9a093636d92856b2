package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/m2tx/dialogue_archiver/internal/agent"
	"github.com/m2tx/dialogue_archiver/internal/archiver"
	"github.com/m2tx/dialogue_archiver/internal/config"
	"github.com/m2tx/dialogue_archiver/internal/logging"
	"github.com/m2tx/dialogue_archiver/internal/plugin"
	"github.com/m2tx/dialogue_archiver/internal/server"
)

const systemInstruction = "You are a helpful chat assistant. Answer briefly."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: os.Getenv("LOG_LEVEL"), File: os.Getenv("LOG_FILE")})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	archiverCfg := loadArchiverConfig(logger)
	arch := archiver.New(ctx, archiverCfg, archiver.WithLogger(logger))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := arch.Close(closeCtx); err != nil {
			logger.Warn("archiver close", zap.Error(err))
		}
	}()

	plugins := plugin.NewRegistry(logger)
	if err := plugins.Register(arch); err != nil {
		logger.Fatal("register plugin", zap.Error(err))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatal("genai client", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + getHttpPort(),
		Handler:           server.New(agent.New(client, getModel(), systemInstruction), plugins, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}
}

// loadArchiverConfig returns nil when the plugin config file or the
// DialogueArchiver block is missing, which disables the archiver.
func loadArchiverConfig(logger *zap.Logger) *config.Archiver {
	path := getPluginConfigPath()
	plugins, err := config.Load(path)
	if err != nil {
		logger.Warn("plugin config not loaded", zap.String("path", path), zap.Error(err))
		return nil
	}

	cfg, err := plugins.Archiver()
	if err != nil {
		logger.Error("invalid archiver config", zap.String("path", path), zap.Error(err))
		return nil
	}

	return cfg
}

func getModel() string {
	model := os.Getenv("MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return model
}

func getHttpPort() string {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return port
}

func getPluginConfigPath() string {
	path := os.Getenv("PLUGIN_CONFIG")
	if path == "" {
		path = "plugins/config.json"
	}

	return path
}
