package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"beast/internal/app"
	"beast/internal/config"
	"beast/internal/ipc"
	"beast/internal/logging"
	"beast/internal/server"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (overrides BEAST_PROXY)")
	addr := cli.StringP("addr", "a", "", "HTTP listen address (overrides BEAST_HTTP_ADDR)")
	socket := cli.StringP("socket", "s", "", "Control socket path (overrides BEAST_SOCKET)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	logging.Setup(os.Stdout, *logLevel)

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *socket != "" {
		cfg.SocketPath = *socket
	}

	log.Debug("Loaded config", "recognizer", cfg.Recognizer, "voice", cfg.Voice)

	beast, err := app.Build(cfg, app.Params{Out: os.Stdout, Recognizer: true})
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}
	defer beast.Close()

	ctl, err := ipc.StartServer(cfg.SocketPath, beast.HandleControl)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		beast.Close()
		os.Exit(1)
	}
	defer ctl.Close()

	beast.Start()

	log.Info("Boot up - successful")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, cfg.HTTPAddr, beast.Handler()); err != nil {
		log.Error("HTTP server stopped", "err", err)
	}

	log.Info("Shutting down")
}
