package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
	"github.com/EdwarHercules/bots-telegram/internal/domain/telegram"
)

// ReportBuilder renders the report text for a claimed queue request.
type ReportBuilder interface {
	Build(ctx context.Context, req *request.Request) (string, error)
}

// Processor drains the request queue: it claims pending rows one by one,
// builds the report and delivers it to the requester. A failure on one row
// never stops the sweep.
type Processor struct {
	requests   request.Repository
	builder    ReportBuilder
	notifier   telegram.Client
	scanWindow time.Duration
	now        func() time.Time
}

func NewProcessor(
	requests request.Repository,
	builder ReportBuilder,
	notifier telegram.Client,
	scanWindow time.Duration,
) *Processor {
	return &Processor{
		requests:   requests,
		builder:    builder,
		notifier:   notifier,
		scanWindow: scanWindow,
		now:        time.Now,
	}
}

// ProcessPending sweeps the queue once. Rows claimed by a concurrent sweep
// are skipped; rows that fail after the claim stay claimed and undelivered
// for later inspection.
func (p *Processor) ProcessPending(ctx context.Context) error {
	since := p.now().Add(-p.scanWindow)
	pending, err := p.requests.ListPending(ctx, since)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}

	for _, req := range pending {
		if err := p.processOne(ctx, req); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"request_id": req.ID,
				"meter":      req.Meter,
			}).Error("request processing failed")
		}
	}
	return nil
}

func (p *Processor) processOne(ctx context.Context, req *request.Request) error {
	claimed, err := p.requests.Claim(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("claim request: %w", err)
	}
	if !claimed {
		logrus.WithField("request_id", req.ID).Debug("request already claimed, skipping")
		return nil
	}

	text, err := p.builder.Build(ctx, req)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if err := p.notifier.SendMessage(req.RequesterID, text, nil); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	if err := p.requests.MarkDelivered(ctx, req.ID); err != nil {
		return fmt.Errorf("mark request delivered: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"requester":   req.RequesterName,
		"report_type": int(req.ReportType),
	}).Info("report delivered")
	return nil
}

// RequeueStale releases rows that were claimed longer than maxAge ago but
// never delivered, making them eligible for the next sweep. Used by the
// optional recovery job.
func (p *Processor) RequeueStale(ctx context.Context, maxAge time.Duration) error {
	n, err := p.requests.RequeueStale(ctx, p.now().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("requeue stale requests: %w", err)
	}
	if n > 0 {
		logrus.WithField("count", n).Warn("requeued stale claimed requests")
	}
	return nil
}
