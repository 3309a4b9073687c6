package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/ot"
	"github.com/coedit/coedit/pubsub"
	"github.com/coedit/coedit/session"
	"github.com/coedit/coedit/transcript"
)

func main() {
	// Parse flags. Flags win over the config file.
	addr := flag.String("addr", "", "Server's network address (overrides config)")
	configPath := flag.String("config", "", "Path to the TOML config file")
	logPath := flag.String("log", "coedit-server.log", "Path to the log file")
	debug := flag.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		color.Red("Config error, exiting: %s", err)
		return
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *debug {
		cfg.Debug = true
	}

	logger := logrus.New()
	logFile, err := setupLogger(logger, *logPath, cfg.Debug)
	if err != nil {
		color.Red("Logger error, exiting: %s", err)
		return
	}
	defer logFile.Close()

	ctx := context.Background()

	sessCfg := session.Config{
		AdaptiveAck: cfg.AdaptiveAck,
		AckDelay:    cfg.ackDelay(),
		ResyncDelay: cfg.resyncDelay(),
		Recorder:    transcript.NewMemory(),
		Logger:      logger,
	}

	// Mirror session events onto Redis when configured, so relay
	// processes can follow the document.
	if cfg.RedisAddr != "" {
		pub, err := pubsub.NewPublisher(ctx, cfg.RedisAddr, cfg.Document)
		if err != nil {
			color.Red("Redis error, exiting: %s", err)
			return
		}
		defer pub.Close()
		sessCfg.Publisher = pub
		color.Green("Mirroring document %q to redis @ %s", cfg.Document, cfg.RedisAddr)
	}

	// Record the audit transcript to Postgres when configured.
	if cfg.PostgresURL != "" {
		rec, err := transcript.NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			color.Red("Postgres error, exiting: %s", err)
			return
		}
		defer rec.Close()
		sessCfg.Recorder = rec
		color.Green("Recording transcript to postgres")
	}

	coordinator := session.New(ot.NewText(cfg.Content), sessCfg)

	mux := http.NewServeMux()
	mux.Handle("/", newHandler(coordinator, logger))

	color.Green("Starting document %q on %s", cfg.Document, cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("error starting server: %v", err)
	}
}
