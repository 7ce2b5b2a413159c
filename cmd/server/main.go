package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wolvesgale/ToDo-Appli/docs"
	"github.com/wolvesgale/ToDo-Appli/internal/app"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/config"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

// @title                       ToDo board API
// @version                     1.0
// @description                 Projects, tasks and a stage x target matrix over a single-table store.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.Stderr.WriteString("load .env: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "todo-api",
	})
	docs.SwaggerInfo.Version = "1.0"

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}
