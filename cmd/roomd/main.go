package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-budget/internal/config"
	"github.com/npezzotti/go-budget/internal/room"
	"github.com/npezzotti/go-budget/internal/stats"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := log.New(os.Stderr, "[roomd] ", log.LstdFlags)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("config:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux, "roomd")

	host := room.NewHost(logger, statsUpdater, cfg.Delivery.RoomSecret,
		cfg.Notifications.HeartbeatInterval, cfg.RoomHost.IdleTimeout)
	mux.Handle("/", host.Handler())

	srv := &http.Server{
		Addr:    cfg.RoomHost.Addr,
		Handler: handlers.LoggingHandler(os.Stdout, mux),
	}

	statsUpdater.Run()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("starting room host on %s\n", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	// hijacked websocket connections are not tracked by the server
	host.Shutdown()
	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Println("HTTP server shutdown:", err)
	}

	statsUpdater.Stop()
	logger.Println("shutdown complete")
}
