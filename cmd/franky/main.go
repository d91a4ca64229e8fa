package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pubky/franky-sub007/internal/app"
	"github.com/pubky/franky-sub007/pkg/banner"
	"github.com/pubky/franky-sub007/pkg/config"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/shutdown"
)

// set via ldflags during release builds
var version = "dev"

func main() {
	_ = godotenv.Load(".env")
	flags := config.ParseCommandFlags()

	cfg, err := config.Load(flags.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Explicit flags win over config file and env.
	if flags.Set["addr"] {
		if host, port, ok := strings.Cut(flags.Addr, ":"); ok {
			cfg.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = p
			}
		} else {
			cfg.Server.Address = flags.Addr
		}
	}
	if flags.Set["db"] {
		cfg.Storage.DBPath = flags.DB
	}
	if flags.Set["owner"] {
		cfg.Session.Owner = flags.Owner
	}

	logger.InitWithLevel(cfg.Logging.Level)
	banner.Print(cfg, version)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	logger.Info("session_starting", "owner", cfg.Session.Owner, "db", cfg.Storage.DBPath)
	if err := a.Run(ctx); err != nil {
		logger.Error("session_failed", "error", err)
		if path, derr := shutdown.WriteCrashDump(cfg.Storage.DBPath, "session run", err); derr == nil {
			logger.Info("crash_dump_written", "path", path)
		}
		_ = a.Close()
		os.Exit(1)
	}

	if err := a.Close(); err != nil {
		logger.Error("close_failed", "error", err)
	}
	logger.Info("session_stopped")
}
