package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	quizgate "edu-gate/agents/quiz-gate"
	"edu-gate/shared/config"
	"edu-gate/shared/youtube"
)

const usage = `usage: quiz-gate [command]

commands:
  serve        run the HTTP API (default)
  once <url>   build a quiz for one video or page and print it as JSON
  auth         authorize YouTube Data API access and store the token`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ConfigureLogging(cfg.Logging); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "auth":
		if err := youtube.Authorize(ctx, &cfg.YouTube); err != nil {
			logrus.WithError(err).Fatal("Authorization failed")
		}
	case "once":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		if err := runOnce(ctx, cfg, os.Args[2]); err != nil {
			logrus.WithError(err).Fatal("Run failed")
		}
	case "serve":
		if err := serve(ctx, cfg); err != nil {
			logrus.WithError(err).Fatal("Server failed")
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func runOnce(ctx context.Context, cfg *config.Config, url string) error {
	app, err := quizgate.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := app.Gate.ProcessURL(ctx, url)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func serve(ctx context.Context, cfg *config.Config) error {
	app, err := quizgate.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	if err := app.StartJobs(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           quizgate.NewServer(app.Gate, cfg.Server).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
