package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokenagg/internal/domain/model"
	"tokenagg/internal/infrastructure/config"
	"tokenagg/internal/infrastructure/logger"
	"tokenagg/internal/infrastructure/svc"
	"tokenagg/internal/interfaces/console"
	"tokenagg/internal/interfaces/httpapi"
	"tokenagg/internal/interfaces/ws"

	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "configs/config.toml"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: tokenagg <serve|watch> [flags]\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "watch":
		err = runWatch(ctx, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", os.Args[1]).Msg("exited with error")
	}
}

// loadConfig tolerates a missing file only at the default path.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		return config.LoadOrDefault(path)
	}
	return config.Load(path)
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config.toml")
	listen := fs.String("listen", "", "listen address, overrides app.listen")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", *configPath, err)
	}
	logger.Setup(cfg.App.LogLevel, cfg.App.PrettyLogs)
	if *listen != "" {
		cfg.App.Listen = *listen
	}

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	api := httpapi.NewServer(httpapi.ServerDeps{
		Tokens:    sc.Tokens,
		Metrics:   sc.Metrics.Handler(),
		Websocket: ws.NewHandler(sc.Monitor, sc.Metrics),
	})
	srv := &http.Server{
		Addr:              cfg.App.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("listen", cfg.App.Listen).
			Str("config", *configPath).
			Int("sources", len(cfg.EnabledSources())).
			Str("cache", cfg.Cache.Backend).
			Msg("tokenagg serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config.toml")
	query := fs.String("query", "", "token search query")
	period := fs.String("period", "24h", "activity window: 1h, 24h or 7d")
	top := fs.Int("top", 5, "tokens shown per update")
	_ = fs.Parse(args)

	if *query == "" {
		return errors.New("watch: -query is required")
	}
	window, err := model.ParseWindow(*period)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", *configPath, err)
	}
	logger.Setup(cfg.App.LogLevel, true)

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.Close()

	if err := sc.Monitor.Subscribe(ctx, console.NewSink(*top), *query, window); err != nil {
		return err
	}
	log.Info().
		Str("query", *query).
		Str("window", string(window)).
		Dur("interval", cfg.PollInterval()).
		Msg("tokenagg watching")

	<-ctx.Done()
	return nil
}
