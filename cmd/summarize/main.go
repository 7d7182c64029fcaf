// File: cmd/summarize/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"youtube-ai-summary/internal/application"
	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/infra/logging"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	textFile := flag.String("file", "", "summarize a plain text transcript")
	videoURL := flag.String("url", "", "run the full pipeline for a YouTube link")
	verbose := flag.Bool("v", false, "log progress at info level")
	flag.Parse()

	if (*textFile == "") == (*videoURL == "") {
		fmt.Fprintln(os.Stderr, "usage: summarize -config config.yaml (-file transcript.txt | -url https://youtu.be/...)")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if !*verbose {
		cfg.Log.Level = "warn"
	}
	// one-shot runs never need a shared store
	cfg.Store.Backend = "memory"
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.Close()

	var summary string
	if *textFile != "" {
		summary, err = summarizeFile(ctx, app, *textFile)
	} else {
		summary, err = summarizeVideo(ctx, app, *videoURL)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		app.Close()
		os.Exit(1)
	}
	fmt.Println(summary)
}

func summarizeFile(ctx context.Context, app *application.Container, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return app.Engine.Summarize(ctx, "cli", string(b))
}

// summarizeVideo submits the link and follows the job stream until it ends.
func summarizeVideo(ctx context.Context, app *application.Container, rawURL string) (string, error) {
	job, err := app.JobUC.Submit(ctx, rawURL)
	if err != nil {
		return "", err
	}

	for !job.Status.IsTerminal() {
		sub := app.Hub.Subscribe(ctx, job.ID)
		for {
			select {
			case <-ctx.Done():
				app.Hub.Unsubscribe(sub)
				return "", ctx.Err()
			case ev, open := <-sub.Events():
				if open {
					if j, ok := ev.Data.(model.Job); ok && !j.Status.IsTerminal() {
						fmt.Fprintf(os.Stderr, "[%s] %s\n", j.Status, j.Result)
					}
					continue
				}
			}
			break
		}
		// closed: terminal state or idle timeout; the store has the answer
		if job, err = app.JobUC.Status(ctx, job.ID); err != nil {
			return "", err
		}
	}

	if job.Status == model.JobStatusFailed {
		return "", errors.New(job.Result)
	}
	return job.Result, nil
}
