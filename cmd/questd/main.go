package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
	"github.com/jglee22/OpenHorizons-sub001/internal/logger"
	"github.com/jglee22/OpenHorizons-sub001/internal/quest"
	"github.com/jglee22/OpenHorizons-sub001/internal/server"
)

func main() {
	configFile := flag.String("config", "data/questd.yaml", "Path to service config YAML file")
	hashKey := flag.String("hash-key", "", "Print the bcrypt hash of a gateway key for auth.key_hash and exit")
	validate := flag.Bool("validate", false, "Load config and quest content, report problems and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configFile, err)
	}

	if *hashKey != "" {
		handleHashKey(cfg, *hashKey)
		return
	}

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(cfg.LogConfig)
	if err != nil {
		log.Printf("Failed to load logging config %s, using defaults: %v", cfg.LogConfig, err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting questd", "config", *configFile, "storage", cfg.Storage.Driver)

	storage, err := server.OpenStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	content, err := quest.LoadDatabase(cfg.Content.Path, storage.LoaderOptions())
	if err != nil {
		log.Fatalf("Failed to load quest content: %v", err)
	}
	logger.Info("Quest content loaded",
		"path", cfg.Content.Path,
		"quests", len(content.Quests()),
		"achievements", len(content.Achievements()))

	if *validate {
		fmt.Printf("Config OK: storage=%s telnet=%q websocket=%q\n",
			cfg.Storage.Driver, cfg.Listen.Telnet, cfg.Listen.WebSocket)
		fmt.Printf("Content OK: %d quests, %d achievements\n",
			len(content.Quests()), len(content.Achievements()))
		return
	}

	sessions := server.NewSessionManager(content, storage.Store, cfg.Session.SaveRoot)
	srv := server.NewServer(cfg, sessions)

	if cfg.Auth.KeyHash == "" {
		logger.Warning("No auth.key_hash configured - any client may speak for any player")
	}
	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.WebSocket.AllowedOrigins) == 1 && cfg.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sessions.RunAutoSave(ctx, cfg.Session.AutoSaveInterval)
	go sessions.RunSurvival(ctx, time.Duration(cfg.Survival.TickSeconds)*time.Second)

	if cfg.Listen.Telnet != "" {
		if err := srv.Listen(); err != nil {
			log.Fatalf("Telnet server error: %v", err)
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log.Fatalf("Telnet server error: %v", err)
			}
		}()
	}

	if cfg.Listen.WebSocket != "" {
		go func() {
			if err := srv.StartWebSocket(); err != nil {
				log.Fatalf("WebSocket server error: %v", err)
			}
		}()
	}

	logger.Info("questd running", "telnet", cfg.Listen.Telnet, "websocket", cfg.Listen.WebSocket)
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown finished with errors", "error", err)
	}
	logger.Info("Server stopped")
}

// handleHashKey prints the hash of a gateway key and exits
func handleHashKey(cfg *config.ServiceConfig, key string) {
	if problem := cfg.Auth.ValidateKey(key); problem != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n%s\n", problem, cfg.Auth.RequirementsText())
		os.Exit(1)
	}

	hash, err := server.HashKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to hash key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
