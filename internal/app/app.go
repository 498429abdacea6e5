package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ykvlv/bedtime-bot/internal/config"
	"github.com/ykvlv/bedtime-bot/internal/discord"
	"github.com/ykvlv/bedtime-bot/internal/presence"
	"github.com/ykvlv/bedtime-bot/internal/scheduler"
	"github.com/ykvlv/bedtime-bot/internal/store"
)

type App struct {
	cfg      config.Config
	log      *zap.Logger
	registry *presence.Registry
	events   chan presence.Event
	httpSrv  *http.Server
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registry := presence.NewRegistry(log.Named("presence"))

	mux := http.NewServeMux()
	mux.Handle("/healthz", healthHandler(registry))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{
		cfg:      cfg,
		log:      log,
		registry: registry,
		events:   make(chan presence.Event, cfg.PresenceBuffer),
		httpSrv:  srv,
	}, nil
}

// Run opens the store and the Discord session and blocks until a signal or a
// fatal component error. The current scheduler tick finishes before Run returns.
func (a *App) Run(ctx context.Context) (err error) {
	a.log.Info("starting bedtime-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("interval", a.cfg.Interval),
		zap.String("unconfigured", string(a.cfg.Policy())),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.cfg.DefaultTZ)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	defer func() { err = multierr.Append(err, repo.Close()) }()
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	router := discord.NewRouter(repo, a.registry, a.log.Named("router"), a.cfg.CommandPrefix, a.cfg.DefaultTZ)
	gw, err := discord.New(a.cfg.DiscordToken, a.log.Named("discord"), router, a.events)
	if err != nil {
		return err
	}

	dispatcher := scheduler.NewDispatcher(gw, a.log.Named("dispatcher"), a.cfg.DispatchWorkers, a.cfg.DispatchQueue)
	sched := scheduler.New(a.registry, repo, dispatcher, a.log.Named("scheduler"), scheduler.Options{
		Interval:  a.cfg.Interval,
		Text:      a.cfg.ReminderText,
		DefaultTZ: a.cfg.DefaultTZ,
		Policy:    a.cfg.Policy(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.registry.Consume(gctx, a.events)
		return nil
	})
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpSrv.Shutdown(shCtx); err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := gw.Open(gctx); err != nil {
		a.log.Error("discord open failed", zap.Error(err))
		stop()
		return multierr.Append(err, g.Wait())
	}
	a.log.Info("discord connected")

	err = g.Wait()
	return multierr.Append(err, gw.Close())
}

type health struct {
	Status  string `json:"status"`
	Tracked int    `json:"tracked"`
	Online  int    `json:"online"`
}

func healthHandler(reg *presence.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(health{
			Status:  "ok",
			Tracked: reg.Len(),
			Online:  len(reg.SnapshotOnline()),
		})
	})
}
