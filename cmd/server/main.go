package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/seatsync/seatsync/internal/audit"
	"github.com/seatsync/seatsync/internal/backup"
	"github.com/seatsync/seatsync/internal/config"
	"github.com/seatsync/seatsync/internal/crypto"
	"github.com/seatsync/seatsync/internal/logger"
	"github.com/seatsync/seatsync/internal/mcp"
	"github.com/seatsync/seatsync/internal/tokencache"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0"
var Version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "stdio":
			cmdStdio(os.Args[2:])
			return
		case "keygen":
			cmdKeygen()
			return
		case "--version", "-v":
			fmt.Printf("seatsync %s\n", Version)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	runServer()
}

func printUsage() {
	fmt.Printf(`SeatSync %s - MCP server for restaurant reservation accounts

Usage: seatsync [command] [options]

Commands:
  (default)    Start the HTTP MCP server
  stdio        Serve MCP over stdin/stdout for a single account
  keygen       Generate a token cache encryption key

Server Options:
  --config <dir>     Directory containing seatsync.jsonc

Credentials:
  HTTP clients send X-Auth-Username, X-Auth-Password, and optionally
  X-Restaurant-ID headers with every request. The stdio transport reads
  SEATSYNC_USERNAME, SEATSYNC_PASSWORD, and SEATSYNC_RESTAURANT_ID from
  the environment instead.

Examples:
  seatsync                           Start the server (auto-detect config)
  seatsync --config /etc/seatsync    Start with a specific config directory
  seatsync stdio                     Serve one account over stdio
  seatsync keygen                    Print a fresh encryption key
`, Version)
}

func runServer() {
	configFlag := flag.String("config", "", "Directory containing seatsync.jsonc")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("seatsync %s\n", Version)
		os.Exit(0)
	}

	cfg, cache := setup(*configFlag)
	defer func() { _ = cache.Close() }()

	server := mcp.NewServer(cfg.Upstream.BaseURL, cache, Version)

	var backupMgr *backup.Manager
	if cfg.Backup.Enabled {
		backupDir := cfg.Backup.Directory
		if !filepath.IsAbs(backupDir) {
			backupDir = filepath.Join(cfg.Cache.DataDir, "..", backupDir)
			backupDir = filepath.Clean(backupDir)
		}
		var err error
		backupMgr, err = backup.New(backup.Config{
			DBPath:    filepath.Join(cfg.Cache.DataDir, "tokens.db"),
			BackupDir: backupDir,
			Retention: cfg.Backup.Retention,
			Schedule:  cfg.Backup.Schedule,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize backup: %v", err)
		}
		backupMgr.Start()
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(cfg.Server.Address)
	}()

	select {
	case err := <-serverErr:
		logger.Fatalf("Server error: %v", err)
	case sig := <-shutdownChan:
		logger.Info("Received signal %v, shutting down", sig)
		if backupMgr != nil {
			backupMgr.Stop()
		}
		_ = cache.Close()
		_ = logger.Close()
	}
}

func cmdStdio(args []string) {
	fs := flag.NewFlagSet("stdio", flag.ExitOnError)
	configFlag := fs.String("config", "", "Directory containing seatsync.jsonc")
	_ = fs.Parse(args)

	cfg, cache := setup(*configFlag)
	defer func() { _ = cache.Close() }()

	server := mcp.NewServer(cfg.Upstream.BaseURL, cache, Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.ServeStdio(ctx); err != nil {
		logger.Fatalf("Stdio server error: %v", err)
	}
}

func cmdKeygen() {
	key, err := crypto.GenerateRandomKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	fmt.Println(hex.EncodeToString(key[:]))
}

// setup loads configuration, initializes logging, and opens the token
// cache. Fatal on any failure: these are setup errors, not request ones.
func setup(configDir string) (*config.Config, *tokencache.Store) {
	configPath, err := config.FindConfigPath(configDir)
	if err != nil {
		log.Fatalf("Failed to locate configuration: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.Cache.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	logDir := filepath.Join(cfg.Cache.DataDir, "logs")
	if err := logger.Init(logDir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	audit.Default().SetEnabled(cfg.AuditEnabled())

	cache, err := tokencache.NewStore(cfg.Cache.DataDir, cfg.EncryptionKey())
	if err != nil {
		logger.Fatalf("Failed to open token cache: %v", err)
	}

	logger.Info("SeatSync %s starting (config: %s, started %s)", Version, configPath, time.Now().Format(time.RFC3339))
	return cfg, cache
}
