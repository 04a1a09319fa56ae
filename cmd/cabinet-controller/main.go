package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/controller"
	"github.com/smartcabinet/controller/internal/cabinet/door"
	"github.com/smartcabinet/controller/internal/cabinet/enroll"
	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/hardware/sim"
	"github.com/smartcabinet/controller/internal/cabinet/inventory"
	"github.com/smartcabinet/controller/internal/cabinet/logbook"
	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/store/sqlite"
	"github.com/smartcabinet/controller/internal/cabinet/syncer"
	"github.com/smartcabinet/controller/internal/config"
	"github.com/smartcabinet/controller/internal/db"
	"github.com/smartcabinet/controller/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New(os.Stdout, "cabinet-controller ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local durable storage
	conn, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}
	writer := db.NewWorker(conn)
	defer writer.Close()

	queue := sqlite.NewOfflineQueue(conn, writer)
	ros := roster.NewService(sqlite.NewRosterStore(conn, writer))
	if err := ros.Load(ctx); err != nil {
		logger.Fatalf("load roster: %v", err)
	}

	// Hardware
	if cfg.Hardware != "sim" {
		logger.Fatalf("unknown hardware %q", cfg.Hardware)
	}
	badge := sim.NewBadgeScanner()
	reader := sim.NewInventoryReader()
	relay := sim.NewLockRelay()
	leaf := sim.NewDoorSensor(true)
	doorCtrl := door.NewController(relay, []hardware.DoorSensor{leaf})

	// Remote roster and log store. Without a bridge URL the cabinet runs
	// against the in-memory fake: fully offline, everything queued locally.
	var (
		remRoster remote.Roster
		remLogs   remote.LogBook
		online    remote.Probe
	)
	if cfg.RemoteBaseURL != "" {
		client := remote.NewClient(cfg.RemoteBaseURL)
		remRoster, remLogs = client, client
		online = remote.DialProbe(cfg.ProbeAddr)
	} else {
		logger.Printf("no remote configured, using in-memory fake")
		fake := remote.NewFake()
		remRoster, remLogs = fake, fake
		online = fake.Probe()
	}

	m := metrics.New(nil)
	if cfg.MetricsAddr != "" {
		go func() {
			logger.Printf("metrics on %s", cfg.MetricsAddr)
			if err := m.Serve(cfg.MetricsAddr); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	scanner := inventory.NewScanner(reader)
	recorder := logbook.NewRecorder(scanner, ros, remLogs, queue, online, logger, m)

	enrollSrv := enroll.NewServer(enroll.Dependencies{
		Addr:          cfg.EnrollAddr,
		BadgeScanner:  badge,
		InventoryScan: scanner,
		Roster:        ros,
		RemoteRoster:  remRoster,
		RemoteLogs:    remLogs,
		Logger:        logger,
		Metrics:       m,
	})

	// Background loops
	uploader := syncer.NewUploader(queue, remLogs, recorder, ros, online, badge, logger, m)
	uploader.Start(ctx)
	defer uploader.Stop()

	rosterSync := syncer.NewRosterSync(remRoster, ros, online, logger)
	rosterSync.SetInterval(cfg.SyncInterval())
	rosterSync.Start(ctx)
	defer rosterSync.Stop()

	timeouts := controller.DefaultTimeouts()
	timeouts.Open = cfg.OpenTimeout()
	timeouts.Close = cfg.CloseTimeout()

	ctrl := controller.New(controller.Dependencies{
		Badge:    badge,
		Door:     doorCtrl,
		Roster:   ros,
		Recorder: recorder,
		Enroll:   enrollSrv,
		Online:   online,
		Logger:   logger,
		Metrics:  m,
		Timeouts: timeouts,
	})

	logger.Printf("cabinet controller starting (env=%s enroll=%s)", cfg.Env, cfg.EnrollAddr)
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("controller: %v", err)
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = m.Shutdown(shutdownCtx)
}
