package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
	"github.com/EdwarHercules/bots-telegram/internal/domain/plan"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
	"github.com/EdwarHercules/bots-telegram/internal/domain/user"
	"github.com/EdwarHercules/bots-telegram/internal/infra/database"
)

// RequestService owns the request intake path: registration, identity
// lookup and the plan-authorization gate that decides whether a submission
// reaches the queue.
type RequestService struct {
	users      user.Repository
	plans      plan.Repository
	requests   request.Repository
	datasets   meter.Datasets
	planWindow time.Duration
	now        func() time.Time
}

func NewRequestService(
	users user.Repository,
	plans plan.Repository,
	requests request.Repository,
	datasets meter.Datasets,
	planWindow time.Duration,
) *RequestService {
	return &RequestService{
		users:      users,
		plans:      plans,
		requests:   requests,
		datasets:   datasets,
		planWindow: planWindow,
		now:        time.Now,
	}
}

// Register binds a Telegram account to an allow-list row. The row must be
// unbound and match the user's full name, Telegram first name or handle.
func (s *RequestService) Register(ctx context.Context, telegramID int64, fullName, telegramName, telegramHandle string) (*user.User, error) {
	existing, err := s.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	n, err := s.users.BindTelegram(ctx, telegramID, fullName, telegramName, telegramHandle)
	if err != nil {
		return nil, fmt.Errorf("bind telegram account: %w", err)
	}
	if n == 0 {
		return nil, ErrNotAllowListed
	}

	bound, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("lookup bound user: %w", err)
	}
	return bound, nil
}

// Lookup resolves the registered user behind a Telegram account.
func (s *RequestService) Lookup(ctx context.Context, telegramID int64) (*user.User, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrUserNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// Submit validates a report request and enqueues it for the background
// processor. Supervisors pass through the plan gate: the meter must resolve
// to a known canonical key whose latest plan entry is still inside the
// recency window. A rejected submission creates no queue row.
func (s *RequestService) Submit(ctx context.Context, telegramID int64, reportType request.ReportType, brand meter.Brand, rawMeter string) (*request.Request, error) {
	u, err := s.Lookup(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	normalized := meter.Normalize(rawMeter, brand)

	var entry *plan.Entry
	if u.Role.RequiresPlan() {
		entry, err = s.checkPlan(ctx, normalized, brand)
		if err != nil {
			return nil, err
		}
	}

	req := &request.Request{
		RequesterID:   telegramID,
		RequesterName: u.DisplayName(),
		ReportType:    reportType,
		Meter:         normalized,
		Brand:         brand,
		SubmittedAt:   s.now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("enqueue request: %w", err)
	}

	// Bookkeeping happens only once the request row exists, so the audit
	// counter never runs ahead of the queue.
	if entry != nil {
		if err := s.plans.RegisterQuery(ctx, entry.ID, entry.QueryCount+1); err != nil {
			logrus.WithError(err).WithField("plan_id", entry.ID).Warn("failed to record plan query")
		}
	}

	logrus.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"requester":   req.RequesterName,
		"report_type": int(reportType),
		"meter":       normalized,
		"brand":       string(brand),
	}).Info("request enqueued")

	return req, nil
}

func (s *RequestService) checkPlan(ctx context.Context, normalized string, brand meter.Brand) (*plan.Entry, error) {
	key, err := s.datasets.ResolveKey(ctx, brand, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolve meter key: %w", err)
	}
	if key == meter.EmptyKey {
		return nil, ErrMeterUnknown
	}

	entry, err := s.plans.LatestByKey(ctx, key)
	if errors.Is(err, database.ErrPlanNotFound) {
		return nil, ErrMeterNotPlanned
	}
	if err != nil {
		return nil, fmt.Errorf("lookup plan entry: %w", err)
	}
	if !entry.ActiveWithin(s.planWindow, s.now()) {
		return nil, ErrPlanExpired
	}
	return entry, nil
}
