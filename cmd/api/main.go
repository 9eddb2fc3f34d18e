package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"billflow/api"
	"billflow/bill"
	"billflow/config"
	"billflow/db"
	"billflow/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	logg := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logg.Fatal().Err(err).Msg("bootstrap database pool")
	}
	defer pool.Close()

	repo := bill.NewRepository(pool)
	bills := api.NewBillsHandler(repo, cfg.UploadDir, cfg.PublicBaseURL, logg)

	router := api.NewRouter(api.RouterConfig{
		Bills:          bills,
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      cfg.UploadDir,
		Log:            logg,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logg.Info().Str("addr", addr).Msg("bills API listening")

	srv := &http.Server{Addr: addr, Handler: router}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal().Err(err).Msg("serve bills API")
	}
}
