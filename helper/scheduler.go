package helper

import (
	"context"
	"log/slog"
	"time"

	"bakery_manager/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

type SlotCloser interface {
	CloseElapsedTimeSlots(ctx context.Context, today utils.CustomDate) (int64, error)
}

type Schedulers struct {
	outbox gocron.Scheduler
	slots  *cron.Cron
	log    *slog.Logger
}

// StartSchedulers runs the outbox reconciler every minute and closes past time slots
// every five minutes.
func StartSchedulers(reconciler Reconciler, slots SlotCloser, log *slog.Logger) (*Schedulers, error) {
	log = log.With("component", "scheduler")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			done, err := reconciler.Reconcile(context.Background())
			if err != nil {
				log.Error("outbox reconcile", "err", err)
				return
			}
			if done > 0 {
				log.Info("outbox tasks reconciled", "count", done)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	_, err = c.AddFunc("*/5 * * * *", func() {
		closed, err := slots.CloseElapsedTimeSlots(context.Background(), utils.NewCustomDate(time.Now()))
		if err != nil {
			log.Error("close elapsed time slots", "err", err)
			return
		}
		if closed > 0 {
			log.Info("elapsed time slots closed", "count", closed)
		}
	})
	if err != nil {
		return nil, err
	}

	s.Start()
	c.Start()
	log.Info("schedulers started")
	return &Schedulers{outbox: s, slots: c, log: log}, nil
}

func (s *Schedulers) Stop() {
	if err := s.outbox.Shutdown(); err != nil {
		s.log.Error("stop outbox scheduler", "err", err)
	}
	<-s.slots.Stop().Done()
	s.log.Info("schedulers stopped")
}
