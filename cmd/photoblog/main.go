package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eringen/photoblog"
	"github.com/eringen/photoblog/imagemeta"
	"github.com/eringen/photoblog/objectstore"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "presign":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: photoblog presign <key> [seconds]")
			os.Exit(1)
		}
		if err := runPresign(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("photoblog %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() (photoblog.Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return photoblog.Config{}, fmt.Errorf("load .env: %w", err)
	}
	return photoblog.LoadConfig()
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := photoblog.NewLogger(cfg.Log, cfg.Production)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	app := photoblog.New(cfg, photoblog.WithLogger(logger))
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func runPresign(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	expires := time.Hour
	if len(args) > 1 {
		secs, err := strconv.Atoi(args[1])
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid seconds %q", args[1])
		}
		expires = time.Duration(secs) * time.Second
	}
	client, err := objectstore.New(cfg.ObjectStore(), objectstore.WithScrubber(imagemeta.Scrubber{}))
	if err != nil {
		return err
	}
	url, err := client.SignedURL(context.Background(), args[0], expires)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func printUsage() {
	fmt.Println(`photoblog - A personal photo blog built with Go, Echo, and templ

Usage:
  photoblog [command] [arguments]

Commands:
  serve                  Run the web server (default)
  presign <key> [secs]   Print a presigned read URL for a stored object
  version                Print the photoblog version
  help                   Show this help message

Configuration is read from the environment and an optional .env file.`)
}
