package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/viniruiz/dashgo/internal/config"
	"github.com/viniruiz/dashgo/internal/crm"
	"github.com/viniruiz/dashgo/internal/httpx"
	"github.com/viniruiz/dashgo/internal/sheets"
	"github.com/viniruiz/dashgo/internal/store"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open store", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer st.Close()

	fetcher := sheets.NewFetcher(sheets.NewHTTPClient(cfg.HTTPTimeout), logger)
	crmSvc := crm.NewService(st, logger)

	r := httpx.NewRouter(httpx.Deps{
		Log:      logger,
		Fetcher:  fetcher,
		CRM:      crmSvc,
		Store:    st,
		SheetURL: cfg.SheetURL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port), slog.String("db", cfg.DBPath))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
