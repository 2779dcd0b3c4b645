package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qrpulse/qrpulse/internal/seed"
)

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:5000", "Base URL of the qrpulse server")
	scenarioPath := flag.String("scenario", "", "Path to a YAML scenario (defaults to the built-in one)")
	concurrent := flag.Int("concurrent", 1, "Number of clicks posted in parallel")
	viewsOnly := flag.Bool("views-only", false, "Skip posting and only print the views")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	sc := seed.DefaultScenario()
	if *scenarioPath != "" {
		loaded, err := seed.LoadScenario(*scenarioPath)
		if err != nil {
			slog.Error("Failed to load scenario", "error", err)
			os.Exit(1)
		}
		sc = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := seed.NewClient(*baseURL, nil)

	if !*viewsOnly {
		summary := seed.Post(ctx, client, sc, *concurrent, os.Stdout)
		slog.Info("Posted clicks", "succeeded", summary.Succeeded, "failed", summary.Failed, "concurrency", *concurrent)
	}

	if err := seed.PrintViews(ctx, client, sc.IDs, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "some views could not be fetched:", err)
		os.Exit(1)
	}
}
