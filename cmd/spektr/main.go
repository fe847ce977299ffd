// ABOUTME: Entry point for the spektr messenger core
// ABOUTME: Serves the local HTTP surface over the persistent state stores

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/spektr-im/spektr/internal/chat"
	"github.com/spektr-im/spektr/internal/config"
	"github.com/spektr-im/spektr/internal/model"
	"github.com/spektr-im/spektr/internal/server"
	"github.com/spektr-im/spektr/internal/session"
	"github.com/spektr-im/spektr/internal/storage"
)

// version is set by goreleaser at build time.
var version = "dev"

const banner = `
                _    _
 ___ _ __   ___| | _| |_ _ __
/ __| '_ \ / _ \ |/ / __| '__|
\__ \ |_) |  __/   <| |_| |
|___/ .__/ \___|_|\_\\__|_|
    |_|
`

const defaultConfig = `server:
  http_addr: "127.0.0.1:8090"

storage:
  path: "${HOME}/.local/share/spektr/spektr.db"

auth:
  jwt_secret: "${SPEKTR_JWT_SECRET}"

defaults:
  theme: "crystal"
  language: "ru"

logging:
  level: "info"
  format: "text"

metrics:
  enabled: true
  path: "/metrics"
`

// getConfigPath returns the path to the config file.
// Priority: SPEKTR_CONFIG env var > XDG_CONFIG_HOME/spektr/spektr.yaml > ~/.config/spektr/spektr.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SPEKTR_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "spektr.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "spektr", "spektr.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: spektr <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the messenger HTTP surface")
		fmt.Println("  init     Write a starter config file")
		fmt.Println("  health   Check a running instance")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	// A .env next to the binary can supply ${VAR} values for the config
	_ = godotenv.Load()

	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Storage: %s\n", cfg.Storage.Path)
	fmt.Println()

	logger.Info("starting spektr",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"storage", cfg.Storage.Path,
	)

	kv, err := storage.NewSQLiteKV(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer kv.Close()

	sessions := session.New(kv, session.Defaults{
		Theme:    model.Theme(cfg.Defaults.Theme),
		Language: model.Language(cfg.Defaults.Language),
	}, logger)
	chats := chat.New(kv, sessions, logger)
	sessions.OnIdentityChange(chats.SetIdentity)
	sessions.Restore(ctx)

	srv := server.New(cfg, sessions, chats, logger)
	return srv.Run(ctx)
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("Wrote %s\n", configPath)
	fmt.Println("Set SPEKTR_JWT_SECRET before running `spektr serve`.")
	return nil
}

func runHealth(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("%s (%s)\n", body["status"], url)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
