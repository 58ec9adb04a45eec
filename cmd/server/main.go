package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/api"
	"github.com/mediagrab/media-relay/api/handlers"
	"github.com/mediagrab/media-relay/internal/app"
	"github.com/mediagrab/media-relay/internal/infrastructure"
	"github.com/mediagrab/media-relay/pkg/logger"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	detach     = flag.Bool("detach", false, "Run the server in the background")
)

func main() {
	flag.Parse()

	if *detach {
		startAsDaemon()
		return
	}

	if err := runServer(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// startAsDaemon re-executes the binary without -detach, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	args := []string{}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Env = os.Environ()
	if cwd, err := os.Getwd(); err == nil {
		cmd.Dir = cwd
	}
	infrastructure.DetachProcess(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
}

func runServer() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	logAdapter, err := logger.Setup(log, config.Logging.Level, config.Logging.LogsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize log files: %w", err)
	}
	defer logAdapter.Close()

	log.Info("Starting media relay",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("extractor", config.Extractor.Binary),
		zap.String("scratch_dir", config.Scratch.Dir),
		zap.Int("max_concurrent", config.Extractor.MaxConcurrent))

	if err := os.MkdirAll(config.Scratch.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	tool := infrastructure.NewYTDLPTool(&config.Extractor, config.Logging.LogsDir, log)

	versionCtx, cancelVersion := context.WithTimeout(context.Background(), 10*time.Second)
	if version, err := tool.Version(versionCtx); err != nil {
		log.Warn("Extraction tool not usable, requests will fail until it is installed",
			zap.String("binary", tool.Binary()), zap.Error(err))
	} else {
		log.Info("Extraction tool found", zap.String("binary", tool.Binary()), zap.String("version", version))
	}
	cancelVersion()

	service := app.NewExtractionService(tool, &config.Extractor, config.Scratch.Dir, log)
	router := api.SetupRouter(service, logAdapter)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
