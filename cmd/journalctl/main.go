package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trade-journal-go/internal/client"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/logger"
)

func main() {
	var (
		configDir = flag.String("config", "./configs", "Directory holding config.yml")
		apiBase   = flag.String("api-base", "", "Journal API base URL (env: JOURNAL_CLIENT_BASE_URL)")
	)
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if v := strings.TrimSpace(*apiBase); v != "" {
		cfg.Client.BaseURL = strings.TrimRight(v, "/")
	}

	// Logs go to stderr so stdout stays valid JSON.
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewClient(&cfg.Client, log)
	if err := dispatch(ctx, api, os.Stdout, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
