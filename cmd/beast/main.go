package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"beast/internal/app"
	"beast/internal/config"
	"beast/internal/logging"
	"beast/pkg/audioconv"
)

const settleTimeout = 30 * time.Second

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	file := cli.StringP("file", "f", "", "Transcribe and run an audio file (wav, mp3, ogg) instead of reading stdin")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	logging.Setup(os.Stderr, *logLevel)

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	beast, err := app.Build(cfg, app.Params{Out: os.Stdout, Text: true, Recognizer: *file != ""})
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}
	defer beast.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *file != "" {
		if err := runFile(ctx, beast, *file); err != nil {
			log.Error("Failed to run audio file", "file", *file, "err", err)
			beast.Close()
			os.Exit(1)
		}
		return
	}

	runStdin(ctx, beast)
}

func runFile(ctx context.Context, beast *app.App, path string) error {
	pcm, err := audioconv.ConvertFileToPCM16k(ctx, path, audioconv.Options{})
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	log.Info("Decoded", "samples", len(pcm))

	if _, err := beast.Assistant.Transcribe(ctx, pcm); err != nil {
		return err
	}
	return settle(ctx, beast)
}

func runStdin(ctx context.Context, beast *app.App) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("BEAST is ready. Type a command, or \"quit\" to leave.")

	for {
		fmt.Print("> ")

		var text string
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return
			}
			text = strings.TrimSpace(line)
		}

		if text == "" {
			continue
		}
		if text == "quit" {
			return
		}

		intent := beast.Assistant.Handle(text)
		if err := settle(ctx, beast); err != nil {
			return
		}
		if intent == "sign_off" {
			return
		}
	}
}

func settle(ctx context.Context, beast *app.App) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	return beast.Settle(ctx)
}
