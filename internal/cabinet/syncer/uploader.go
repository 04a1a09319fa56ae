// Package syncer holds the two long-lived background loops: the offline-log
// uploader and the roster sync. Both defer to the foreground loop — they
// only act while the cabinet is idle.
package syncer

import (
	"context"
	"log"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/logbook"
	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/store"
	"github.com/smartcabinet/controller/internal/metrics"
)

const defaultUploadInterval = 5 * time.Second

// Uploader opportunistically replays the offline queue once connectivity
// returns.
type Uploader struct {
	queue    store.OfflineQueue
	logs     remote.LogBook
	recorder *logbook.Recorder
	roster   *roster.Service
	online   remote.Probe
	badge    hardware.BadgeScanner
	logger   *log.Logger
	metrics  *metrics.Metrics

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewUploader(
	queue store.OfflineQueue,
	logs remote.LogBook,
	recorder *logbook.Recorder,
	ros *roster.Service,
	online remote.Probe,
	badge hardware.BadgeScanner,
	logger *log.Logger,
	m *metrics.Metrics,
) *Uploader {
	return &Uploader{
		queue:    queue,
		logs:     logs,
		recorder: recorder,
		roster:   ros,
		online:   online,
		badge:    badge,
		logger:   logger,
		metrics:  m,
		interval: defaultUploadInterval,
		done:     make(chan struct{}),
	}
}

// SetInterval shortens the poll interval; tests use this.
func (u *Uploader) SetInterval(d time.Duration) {
	if d > 0 {
		u.interval = d
	}
}

func (u *Uploader) Start(ctx context.Context) {
	ctx, u.cancel = context.WithCancel(ctx)
	go u.loop(ctx)
}

func (u *Uploader) Stop() {
	if u.cancel != nil {
		u.cancel()
	}
	<-u.done
}

func (u *Uploader) loop(ctx context.Context) {
	defer close(u.done)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if u.recorder.HasBacklog() && u.roster.Idle() && u.online() {
				u.drain(ctx)
			}
		}
	}
}

// drain replays the whole queue, destination by destination. Entries whose
// upload fails go straight back into the queue so nothing is lost to a
// half-connected network.
func (u *Uploader) drain(ctx context.Context) {
	u.badge.SetLED(hardware.LedRed)
	defer func() {
		if u.roster.Idle() {
			u.badge.SetLED(hardware.LedAmber)
		}
	}()

	pending, err := u.queue.DrainAll(ctx)
	if err != nil {
		u.logger.Printf("uploader: drain: %v", err)
		return
	}

	total, failed := 0, 0
	for item, entries := range pending {
		total += len(entries)
		if err := u.logs.Append(ctx, item, entries); err != nil {
			u.logger.Printf("uploader: append %q: %v", item, err)
			if qerr := u.queue.Append(ctx, entries); qerr != nil {
				u.logger.Printf("uploader: requeue %q: %v", item, qerr)
			}
			failed += len(entries)
		}
	}

	// A transaction may have queued more entries while the drain was
	// uploading; only a depth of zero may clear the backlog flag.
	backlog := failed > 0
	depth, err := u.queue.Depth(ctx)
	if err == nil {
		u.metrics.OfflineQueueDepth.Set(float64(depth))
		backlog = backlog || depth > 0
	}
	u.recorder.SetBacklog(backlog)

	if total > 0 {
		u.logger.Printf("uploader: replayed %d queued entries (%d failed)", total, failed)
	}
}
