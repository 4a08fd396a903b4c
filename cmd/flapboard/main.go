// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the flapboard service.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wneessen/flapboard/internal/config"
	"github.com/wneessen/flapboard/internal/i18n"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	confPath := flag.String("config", "", "path to the config file")
	stop := flag.String("stop", "", "transit stop identifier shown on the board")
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// An explicit config file wins over the one in the default location
	path, file := findConfigFile()
	if *confPath != "" {
		path, file = filepath.Dir(*confPath), filepath.Base(*confPath)
	}
	if path != "" && file != "" {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	// The stop flag overrides the config
	if s := strings.TrimSpace(*stop); s != "" {
		conf.Stop = s
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	// Initialize the service
	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize flapboard service", logger.Err(err))
		os.Exit(1)
	}

	// Start the service loop
	log.Info("starting flapboard service", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date), slog.String("stop", conf.Stop))
	if err = serv.Run(ctx); err != nil {
		log.Error("flapboard service stopped with error", logger.Err(err))
	}
	log.Info("shutting down flapboard service")
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "flapboard", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
