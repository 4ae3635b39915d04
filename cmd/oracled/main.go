package main

import (
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/ark-network/oracle/internal/app-config"
	"github.com/ark-network/oracle/internal/config"
	restservice "github.com/ark-network/oracle/internal/interface/rest"
	log "github.com/sirupsen/logrus"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))
	log.Debugf("loaded config: %s", cfg)

	svcConfig := restservice.Config{
		Port:      cfg.Port,
		RateLimit: cfg.RateLimit,
	}

	appConfig := &appconfig.Config{
		EventDbType:    cfg.EventDbType,
		EventDbDir:     cfg.EventDbDir,
		LedgerType:     cfg.LedgerType,
		LedgerDir:      cfg.LedgerDir,
		RedisURL:       cfg.RedisURL,
		ClockType:      cfg.ClockType,
		EsploraURL:     cfg.EsploraURL,
		SchedulerType:  cfg.SchedulerType,
		SettleInterval: cfg.SettleInterval,
		MarginRule:     cfg.BidMarginRule,
	}
	svc, err := restservice.NewService(svcConfig, appConfig)
	if err != nil {
		log.Fatal(err)
	}

	log.RegisterExitHandler(svc.Stop)

	log.Infof("starting oracled %s (%s, %s)...", version, commit, date)
	log.Infof("resolver deadlines are measured in %s", appConfig.ClockUnit())
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
