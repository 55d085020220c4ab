package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bkmview/internal/config"
	"bkmview/internal/ui"
	"bkmview/internal/util/logx"
	"bkmview/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	logx.SetLevelFromEnv()
	defer logx.Close()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 2
	}

	if cfg.ShowVersion {
		fmt.Println("bkmview", version.String())
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logx.Infof("starting bkmview %s: %s", version.String(), cfg.String())
	if err := ui.Run(ctx, cfg); err != nil {
		logx.Errorf("bkmview exited with error: %v", err)
		fmt.Fprintln(os.Stderr, "bkmview:", err)
		return 1
	}
	return 0
}
