package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
)

var errSendFailed = errors.New("send failed")

func seedRequest(t *testing.T, repo *memRequestRepo, chatID int64, m string) *request.Request {
	t.Helper()
	req := &request.Request{
		RequesterID:   chatID,
		RequesterName: "Perez",
		ReportType:    request.ReportAlarms,
		Meter:         m,
		Brand:         meter.BrandHexing,
		SubmittedAt:   time.Now(),
	}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func TestProcessPendingDeliversAndMarks(t *testing.T) {
	repo := newMemRequestRepo()
	req := seedRequest(t, repo, 42, "HX001")
	notifier := &fakeNotifier{}
	p := NewProcessor(repo, &staticBuilder{}, notifier, time.Hour)

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	sends := notifier.sends()
	if len(sends) != 1 || sends[0].chatID != 42 || sends[0].text != "reporte HX001" {
		t.Fatalf("unexpected sends: %+v", sends)
	}
	got := repo.get(req.ID)
	if !got.Claimed || !got.Delivered {
		t.Errorf("row must end claimed and delivered, got %+v", got)
	}
}

func TestProcessPendingSkipsOldRows(t *testing.T) {
	repo := newMemRequestRepo()
	old := seedRequest(t, repo, 42, "HX-OLD")
	repo.mu.Lock()
	repo.rows[old.ID].SubmittedAt = time.Now().Add(-2 * time.Hour)
	repo.mu.Unlock()

	notifier := &fakeNotifier{}
	p := NewProcessor(repo, &staticBuilder{}, notifier, time.Hour)
	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(notifier.sends()) != 0 {
		t.Error("rows outside the scan window must not be processed")
	}
}

func TestProcessPendingNotifierFailureLeavesRowClaimed(t *testing.T) {
	repo := newMemRequestRepo()
	req := seedRequest(t, repo, 42, "HX001")
	notifier := &fakeNotifier{fail: true}
	p := NewProcessor(repo, &staticBuilder{}, notifier, time.Hour)

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	got := repo.get(req.ID)
	if !got.Claimed {
		t.Error("row must stay claimed after a failed send")
	}
	if got.Delivered {
		t.Error("row must not be delivered after a failed send")
	}
}

func TestProcessPendingIsolatesRowFailures(t *testing.T) {
	repo := newMemRequestRepo()
	bad := seedRequest(t, repo, 1, "HX-BAD")
	good := seedRequest(t, repo, 2, "HX-GOOD")

	builder := &staticBuilder{failFor: map[int64]error{bad.ID: errors.New("dataset down")}}
	notifier := &fakeNotifier{}
	p := NewProcessor(repo, builder, notifier, time.Hour)

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	if got := repo.get(good.ID); !got.Delivered {
		t.Error("a failing row must not block the rest of the sweep")
	}
	if got := repo.get(bad.ID); got.Delivered {
		t.Error("the failing row must not be marked delivered")
	}
	if len(notifier.sends()) != 1 {
		t.Errorf("expected exactly one delivery, got %d", len(notifier.sends()))
	}
}

func TestConcurrentSweepsClaimEachRowOnce(t *testing.T) {
	repo := newMemRequestRepo()
	for i := 0; i < 20; i++ {
		seedRequest(t, repo, int64(i), "HX")
	}
	notifier := &fakeNotifier{}
	p := NewProcessor(repo, &staticBuilder{}, notifier, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.ProcessPending(context.Background())
		}()
	}
	wg.Wait()

	if got := len(notifier.sends()); got != 20 {
		t.Errorf("each request must be delivered exactly once, got %d sends for 20 rows", got)
	}
}

func TestRequeueStaleReleasesOldClaims(t *testing.T) {
	repo := newMemRequestRepo()
	req := seedRequest(t, repo, 42, "HX001")

	ok, err := repo.Claim(context.Background(), req.ID)
	if err != nil || !ok {
		t.Fatalf("Claim: ok=%v err=%v", ok, err)
	}
	repo.mu.Lock()
	repo.rows[req.ID].ClaimedAt.Time = time.Now().Add(-time.Hour)
	repo.mu.Unlock()

	p := NewProcessor(repo, &staticBuilder{}, &fakeNotifier{}, time.Hour)
	if err := p.RequeueStale(context.Background(), 30*time.Minute); err != nil {
		t.Fatalf("RequeueStale: %v", err)
	}
	if got := repo.get(req.ID); got.Claimed {
		t.Error("stale claim must be released")
	}
}
