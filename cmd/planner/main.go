package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Hamza-235/Smart-study-Planner/internal/config"
	"github.com/Hamza-235/Smart-study-Planner/internal/logging"
	"github.com/Hamza-235/Smart-study-Planner/internal/server"
	"github.com/Hamza-235/Smart-study-Planner/internal/services"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-passphrase" {
		os.Exit(hashPassphrase(os.Args[2:]))
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to read .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"storage":     cfg.Storage.Driver,
		"delivery":    cfg.Reminder.Delivery,
	}).Info("starting study planner")

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialise server")
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Error("server exited with error")
		srv.Close()
		os.Exit(1)
	}
}

// hashPassphrase prints the bcrypt hash for AUTH_PASSPHRASE_HASH.
func hashPassphrase(args []string) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "usage: planner hash-passphrase <passphrase>")
		return 2
	}
	hash, err := services.HashPassphrase(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(hash)
	return 0
}
