package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"bikepulse/internal/app"
	"bikepulse/internal/dataset"
)

// Embedded thin client
//
//go:embed all:frontend/*
var frontendFiles embed.FS

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	application, err := app.NewApplication(frontendFS(frontendFiles))
	if err != nil {
		if dataset.IsLoadError(err) {
			slog.Error("Dataset could not be loaded, check BIKE_DATASET_FILE", slog.String("error", err.Error()))
		} else {
			slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		}
		return 1
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// frontendFS strips the frontend/ prefix. A nil result makes the server
// fall back to its placeholder page.
func frontendFS(files fs.FS) fs.FS {
	sub, err := fs.Sub(files, "frontend")
	if err != nil {
		slog.Warn("Frontend embedding failed", slog.String("error", err.Error()))
		return nil
	}
	if _, err := fs.Stat(sub, "index.html"); err != nil {
		slog.Warn("Embedded frontend has no index.html", slog.String("error", err.Error()))
		return nil
	}
	return sub
}
