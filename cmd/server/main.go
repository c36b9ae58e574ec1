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

	_ "github.com/lib/pq"
	"github.com/npezzotti/go-budget/internal/api"
	"github.com/npezzotti/go-budget/internal/config"
	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/stats"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := log.New(os.Stderr, "[budget] ", log.LstdFlags)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewSQLRepository(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux, "budget")

	srv, err := api.NewBudgetApp(mux, logger, dbConn, statsUpdater, cfg)
	if err != nil {
		logger.Fatal("new budget app:", err)
	}

	statsUpdater.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retention := time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour
	go srv.Notifier().RunRetention(ctx, cfg.Notifications.SweepInterval, retention)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	cancel()

	shutDownCtx, shutDownCancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer shutDownCancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	statsUpdater.Stop()
	logger.Println("shutdown complete")
}
