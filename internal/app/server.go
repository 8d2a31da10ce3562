package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"realvora-go/internal/api"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the query API and the block producer until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Server.ListenAddr, err)
	}
	return a.serve(ctx, ln)
}

// newScheduler returns a cron scheduler that mines a block on every tick
// of the configured interval. Overlapping ticks are skipped.
func (a *App) newScheduler() (*cron.Cron, error) {
	logger := cronLogger{l: a.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	interval := a.cfg.Server.BlockInterval
	if interval == "" {
		interval = "@every 10s"
	}
	_, err := c.AddFunc(interval, func() {
		if _, err := a.MineBlock(); err != nil {
			a.logger.Error("block production failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid block_interval %q: %w", interval, err)
	}
	return c, nil
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	scheduler, err := a.newScheduler()
	if err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           api.NewRouter(a.service, a.db, a.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("query API listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving API: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		a.logger.Info("block producer started", "interval", a.cfg.Server.BlockInterval)

		<-ctx.Done()

		// Wait for a running block before closing the listener.
		<-scheduler.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down API: %w", err)
		}
		a.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
