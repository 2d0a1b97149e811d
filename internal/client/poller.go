package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"skillbridge-admin/internal/models"
)

// Poller is the dashboard-side consumer of the notification feed. It polls on
// a fixed interval, heartbeats the admin session, and fires UI side effects
// through callbacks.
//
// When several notifications arrive within one poll cycle, only the newest is
// announced; the unread count delivered with OnUpdate carries the rest. One
// toast per cycle is the intended behavior, not a dropped announcement.
type Poller struct {
	client          *resty.Client
	adminID         string
	interval        time.Duration
	visibilityDelay time.Duration

	// OnAnnounce fires at most once per cycle for the newest unseen
	// notification (toast + sound). OnUpdate fires every cycle with the
	// refreshed feed.
	OnAnnounce func(n *models.Notification)
	OnUpdate   func(notifications []*models.Notification, unreadCount int64)

	mu              sync.Mutex
	lastSeenID      string
	loaded          bool
	visibilityTimer *time.Timer
}

type PollerOptions struct {
	Interval        time.Duration
	VisibilityDelay time.Duration
}

type feedResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

func NewPoller(baseURL, token, adminID string, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.VisibilityDelay <= 0 {
		opts.VisibilityDelay = 2 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(10 * time.Second)

	return &Poller{
		client:          restyClient,
		adminID:         adminID,
		interval:        opts.Interval,
		visibilityDelay: opts.VisibilityDelay,
	}
}

// Run polls immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.ClosePanel()
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	if err := p.Heartbeat(ctx); err != nil {
		log.Warnf("session heartbeat failed: %v", err)
	}
	if err := p.Poll(ctx); err != nil {
		log.Warnf("notification poll failed: %v", err)
	}
}

// Poll fetches unread notifications and reconciles announcement state.
func (p *Poller) Poll(ctx context.Context) error {
	var feed feedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("include_read", "false").
		SetResult(&feed).
		Get("/api/v1/notifications")
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification fetch returned status %d", resp.StatusCode())
	}

	newest := newestOf(feed.Notifications)

	p.mu.Lock()
	announce := p.loaded && newest != nil && newest.ID != p.lastSeenID
	if newest != nil {
		p.lastSeenID = newest.ID
	}
	p.loaded = true
	p.mu.Unlock()

	if announce && p.OnAnnounce != nil {
		p.OnAnnounce(newest)
	}
	if p.OnUpdate != nil {
		p.OnUpdate(feed.Notifications, feed.UnreadCount)
	}
	return nil
}

// Heartbeat refreshes the admin session's activity timestamp.
func (p *Poller) Heartbeat(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/api/v1/admin-sessions/%s/heartbeat", p.adminID))
	if err != nil {
		return fmt.Errorf("failed to send heartbeat: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("heartbeat returned status %d", resp.StatusCode())
	}
	return nil
}

// OpenPanel starts the visibility timer: once the panel has been open for the
// visibility delay, everything currently shown is batch-marked read.
func (p *Poller) OpenPanel(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.visibilityTimer != nil {
		p.visibilityTimer.Stop()
	}
	p.visibilityTimer = time.AfterFunc(p.visibilityDelay, func() {
		if err := p.MarkAllRead(ctx); err != nil {
			log.Warnf("failed to mark notifications read: %v", err)
		}
	})
}

// ClosePanel cancels a pending visibility timer.
func (p *Poller) ClosePanel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.visibilityTimer != nil {
		p.visibilityTimer.Stop()
		p.visibilityTimer = nil
	}
}

// MarkAllRead batch-marks the feed as read.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Post("/api/v1/notifications/read-all")
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("read-all returned status %d", resp.StatusCode())
	}
	return nil
}

func newestOf(notifications []*models.Notification) *models.Notification {
	var newest *models.Notification
	for _, n := range notifications {
		if newest == nil || n.Timestamp.After(newest.Timestamp) {
			newest = n
		}
	}
	return newest
}
