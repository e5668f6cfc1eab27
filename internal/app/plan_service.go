package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/EdwarHercules/bots-telegram/internal/domain/plan"
	"github.com/EdwarHercules/bots-telegram/internal/domain/user"
)

// PlanService registers planning batches on behalf of planner and
// administrator users.
type PlanService struct {
	plans plan.Repository
	now   func() time.Time
}

func NewPlanService(plans plan.Repository) *PlanService {
	return &PlanService{plans: plans, now: time.Now}
}

// RegisterEntries stores a parsed batch of plan entries for the given owner.
// Entries with a blank key are discarded; the surviving batch is stored
// all-or-nothing.
func (s *PlanService) RegisterEntries(ctx context.Context, owner *user.User, entries []*plan.Entry) (int, error) {
	if !owner.Role.CanPlan() {
		return 0, ErrNotAuthorizedToPlan
	}

	kept := make([]*plan.Entry, 0, len(entries))
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			continue
		}
		e.Key = key
		e.OwnerID = owner.ID
		e.OwnerName = owner.DisplayName()
		if e.PlannedAt.IsZero() {
			e.PlannedAt = s.now()
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return 0, ErrEmptyPlanInput
	}

	if err := s.plans.BulkCreate(ctx, kept); err != nil {
		return 0, fmt.Errorf("store plan batch: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"owner":   owner.DisplayName(),
		"entries": len(kept),
	}).Info("plan batch registered")

	return len(kept), nil
}

// RegisterKeys stores a plan batch given as bare meter keys, one entry per
// key, all planned for the current moment. Used by the text input path.
func (s *PlanService) RegisterKeys(ctx context.Context, owner *user.User, keys []string) (int, error) {
	entries := make([]*plan.Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, &plan.Entry{Key: key, PlannedAt: s.now()})
	}
	return s.RegisterEntries(ctx, owner, entries)
}

// SplitPlanInput breaks a free-form text message into candidate meter keys.
// Commas, semicolons and line breaks all act as separators.
func SplitPlanInput(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		if k := strings.TrimSpace(f); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
