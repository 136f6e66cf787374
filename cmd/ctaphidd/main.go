// Command ctaphidd runs a virtual CTAPHID authenticator behind a hidproxy
// endpoint (a named pipe on Windows, a unix socket elsewhere).
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-ctap/authenticator/pkg/hidproxy"
	"github.com/go-ctap/authenticator/pkg/options"
	"github.com/go-ctap/authenticator/pkg/status"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	pipePath := flag.String("pipe", "", "override the endpoint path")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	cfg := defaultServiceConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadServiceConfig(*configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
	}
	if *pipePath != "" {
		cfg.PipePath = *pipePath
	}

	lvl := new(slog.LevelVar)
	lvl.Set(cfg.LogLevel)
	if *debug {
		lvl.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := append(cfg.options(),
		options.WithLogger(logger),
		options.WithIndicator(status.Logger{Logger: logger}),
	)

	server := hidproxy.NewServer(opts...)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ctaphidd stopped", "error", err)
		os.Exit(1)
	}
}
