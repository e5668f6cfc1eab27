package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/EdwarHercules/bots-telegram/internal/app"
)

// QueueScheduler drives the background queue sweeps. It runs the processor
// on a fixed interval and, when enabled, a slower recovery job that releases
// stale claimed rows.
type QueueScheduler struct {
	cronEngine      *cron.Cron
	processor       *app.Processor
	processInterval time.Duration
	requeueAfter    time.Duration // 0 disables the recovery job
}

func NewQueueScheduler(processor *app.Processor, processInterval, requeueAfter time.Duration) *QueueScheduler {
	return &QueueScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)),
		processor:       processor,
		processInterval: processInterval,
		requeueAfter:    requeueAfter,
	}
}

func (s *QueueScheduler) Start() error {
	sweepSpec := fmt.Sprintf("@every %s", s.processInterval)
	_, err := s.cronEngine.AddFunc(sweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.processor.ProcessPending(ctx); err != nil {
			logrus.WithError(err).Error("queue sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("add queue sweep job: %w", err)
	}

	if s.requeueAfter > 0 {
		recoverySpec := fmt.Sprintf("@every %s", s.requeueAfter)
		_, err = s.cronEngine.AddFunc(recoverySpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			if err := s.processor.RequeueStale(ctx, s.requeueAfter); err != nil {
				logrus.WithError(err).Error("stale requeue job failed")
			}
		})
		if err != nil {
			return fmt.Errorf("add stale requeue job: %w", err)
		}
	}

	s.cronEngine.Start()
	logrus.WithField("interval", s.processInterval.String()).Info("queue scheduler started")
	return nil
}

func (s *QueueScheduler) Stop() {
	ctx := s.cronEngine.Stop() // Waits for running jobs to finish.
	<-ctx.Done()
	logrus.Info("queue scheduler stopped")
}
