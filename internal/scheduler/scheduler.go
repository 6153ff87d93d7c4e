// Package scheduler runs the reminder dispatcher on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/autoremind/autoremind/internal/clock"
	"github.com/autoremind/autoremind/internal/lock"
	"github.com/autoremind/autoremind/internal/reminder"
)

const dispatchLockKey = "autoremind:dispatch"

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log        *zap.Logger
	Dispatcher *reminder.Dispatcher
	Locker     *lock.Locker `optional:"true"`
	Clock      clock.Clock
	Config     Config `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	dispatcher *reminder.Dispatcher
	locker     *lock.Locker
	clock      clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Dispatcher == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		dispatcher: p.Dispatcher,
		locker:     p.Locker,
		clock:      p.Clock,
	}, nil
}

// RunOnce executes a single dispatch pass. When a locker is configured the
// pass is skipped if another instance already holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, dispatchLockKey, s.cfg.JobTimeout)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Debug("dispatch lock held elsewhere, skipping run")
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), dispatchLockKey, token); err != nil {
				s.log.Warn("failed to release dispatch lock", zap.Error(err))
			}
		}()
	}

	report, err := s.dispatcher.Run(ctx)
	if err != nil {
		return err
	}
	s.log.Info("scheduled dispatch complete",
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
	)
	return nil
}

// RunForever loops until the context is cancelled, running once per
// interval.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
