// Package main is the entry point for the imghash HTTP server
package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"imghash/api"
	"imghash/api/handler"
	"imghash/internal/config"
	"imghash/internal/database"
	"imghash/internal/imageprocessing"
	"imghash/internal/logging"
	"imghash/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, addr, imageDir, logLevel string

	flagSet := pflag.NewFlagSet("imghash-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $"+config.EnvVar+")")
	flagSet.StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	flagSet.StringVar(&imageDir, "image-dir", "", "reference image directory, overrides images.dir")
	flagSet.StringVar(&logLevel, "log-level", "", "log level, overrides log.level")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if imageDir != "" {
		cfg.Images.Dir = imageDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, logCloser, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log.Info("Application starting...")

	// Set up images directory
	if _, err := os.Stat(cfg.Images.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.Images.Dir, 0o755); err != nil {
			return errors.Wrap(err, "could not create images directory")
		}
		log.Infof("Created images directory: %s", cfg.Images.Dir)
	}

	hasher, err := cfg.Hash.NewHasher()
	if err != nil {
		return err
	}

	thumbnailMode, _ := imageprocessing.ParseThumbnailMode(cfg.Images.ThumbnailMode)
	opts := database.Options{
		Workers:       cfg.Images.Workers,
		ThumbnailSize: cfg.Images.ThumbnailSize,
		ThumbnailMode: thumbnailMode,
		CacheTTL:      cfg.Cache.TTL,
		CacheCleanup:  cfg.Cache.Cleanup,
		Logger:        log,
	}
	if cfg.Storage.Path != "" {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	db := database.NewImageDatabase(hasher, opts)
	if err := db.Restore(); err != nil {
		return err
	}
	if err := db.LoadImages(cfg.Images.Dir); err != nil {
		return err
	}
	log.WithField("hash", hasher.Config.Algorithm.String()).Infof("Loaded %d images into database", db.Len())

	backend, _ := imageprocessing.ParseResizeBackend(cfg.Hash.Resize)
	h := &handler.Handler{
		DB:             db,
		ImageDir:       cfg.Images.Dir,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		MaxHashSize:    cfg.Hash.MaxSize,
		Threshold:      cfg.Match.Threshold,
		Converter:      imageprocessing.Converter{Backend: backend},
		Log:            log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := api.Router(h, cfg.Server.AllowOrigins)

	log.Infof("Server started on %s...", cfg.Server.Addr)
	return r.Run(cfg.Server.Addr)
}
