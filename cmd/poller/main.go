package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"skillbridge-admin/internal/client"
	"skillbridge-admin/internal/config"
	"skillbridge-admin/internal/models"
)

// Headless dashboard poller. Watches the notification feed for one admin,
// logging announcements instead of rendering them. Useful for smoke-testing
// a deployment without a browser.
func main() {
	cfg := config.Load()

	adminID := os.Getenv("ADMIN_ID")
	token := os.Getenv("ADMIN_TOKEN")
	if adminID == "" || token == "" {
		log.Fatal("ADMIN_ID and ADMIN_TOKEN are required")
	}

	poller := client.NewPoller(cfg.APIBaseURL, token, adminID, client.PollerOptions{
		Interval:        cfg.PollInterval,
		VisibilityDelay: cfg.VisibilityDelay,
	})

	poller.OnAnnounce = func(n *models.Notification) {
		log.WithFields(log.Fields{
			"notification_id": n.ID,
			"type":            n.Type,
			"priority":        n.Priority,
		}).Infof("new notification: %s", n.Title)
	}
	poller.OnUpdate = func(_ []*models.Notification, unread int64) {
		log.Debugf("feed refreshed, %d unread", unread)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down poller...")
		cancel()
	}()

	log.Infof("polling %s every %s as admin %s", cfg.APIBaseURL, cfg.PollInterval, adminID)
	poller.Run(ctx)
}
