package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vitalsync/internal/config"
	"vitalsync/internal/domain"
	"vitalsync/internal/logger"
	"vitalsync/internal/syncer"
)

func main() {
	cfg := config.LoadAgent()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitalsync-agent")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.APIKey == "" {
		log.Fatal("API_KEY is required")
	}

	device := domain.DeviceInfo{
		Model:      cfg.Device.Model,
		OSVersion:  cfg.Device.OSVersion,
		AppVersion: cfg.Device.AppVersion,
	}

	s := syncer.NewSyncer(
		syncer.NewCursorStore(cfg.CursorPath),
		syncer.NewFileExtractor(cfg.SpoolPath),
		syncer.NewClient(cfg.ServerURL, cfg.APIKey, log),
		device,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		if err := s.Run(ctx); err != nil {
			if errors.Is(err, syncer.ErrSyncInProgress) {
				log.Debug("sync trigger ignored, session already running")
				return
			}
			log.Error("sync session failed", zap.Error(err))
		}
	}

	// MQTT 低延迟触发（可选，默认走定时器）
	var trigger *syncer.Trigger
	if cfg.MQTT.Enabled {
		trigger, err = syncer.NewTrigger(syncer.TriggerConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
		}, log)
		if err != nil {
			log.Fatal("failed to start MQTT trigger", zap.Error(err))
		}
		if err := trigger.Start(func() { go runOnce() }); err != nil {
			log.Fatal("failed to subscribe MQTT trigger", zap.Error(err))
		}
	}

	log.Info("vitalsync-agent started",
		zap.String("server_url", cfg.ServerURL),
		zap.Duration("sync_interval", cfg.SyncInterval),
		zap.Bool("mqtt_trigger", cfg.MQTT.Enabled))

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// 启动即跑一轮，之后按间隔周期同步
	runOnce()

	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-sigCh:
			log.Info("Shutting down vitalsync-agent...")
			cancel()
			if trigger != nil {
				trigger.Stop()
			}
			return
		}
	}
}
