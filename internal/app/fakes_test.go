package app

import (
	"context"
	"sync"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
	"github.com/EdwarHercules/bots-telegram/internal/domain/plan"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
	"github.com/EdwarHercules/bots-telegram/internal/domain/user"
	idb "github.com/EdwarHercules/bots-telegram/internal/infra/database"
	"gopkg.in/telebot.v3"
)

// memRequestRepo is a thread-safe in-memory request.Repository with the same
// claim semantics as the SQL implementations: the flip to claimed succeeds
// for exactly one caller.
type memRequestRepo struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*request.Request
	createErr error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{rows: make(map[int64]*request.Request)}
}

func (m *memRequestRepo) Create(ctx context.Context, r *request.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memRequestRepo) ListPending(ctx context.Context, since time.Time) ([]*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.Request
	for _, r := range m.rows {
		if !r.Claimed && !r.Delivered && !r.SubmittedAt.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRequestRepo) Claim(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Claimed {
		return false, nil
	}
	r.Claimed = true
	r.ClaimedAt.Time = time.Now()
	r.ClaimedAt.Valid = true
	return true, nil
}

func (m *memRequestRepo) MarkDelivered(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || !r.Claimed {
		return idb.ErrRequestNotFound
	}
	r.Delivered = true
	return nil
}

func (m *memRequestRepo) RequeueStale(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.Claimed && !r.Delivered && r.ClaimedAt.Valid && r.ClaimedAt.Time.Before(before) {
			r.Claimed = false
			r.ClaimedAt.Valid = false
			n++
		}
	}
	return n, nil
}

func (m *memRequestRepo) get(id int64) request.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

func (m *memRequestRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// fakeUserRepo serves a fixed set of users keyed by Telegram ID.
type fakeUserRepo struct {
	users     map[int64]*user.User
	bindCalls int
	bindMatch bool
}

func (f *fakeUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	if u, ok := f.users[telegramID]; ok {
		return u, nil
	}
	return nil, idb.ErrUserNotFound
}

func (f *fakeUserRepo) BindTelegram(ctx context.Context, telegramID int64, fullName, telegramName, telegramHandle string) (int64, error) {
	f.bindCalls++
	if !f.bindMatch {
		return 0, nil
	}
	u := &user.User{ID: int64(100 + f.bindCalls), FullName: fullName, Role: user.RoleSupervisor}
	u.TelegramID.Int64 = telegramID
	u.TelegramID.Valid = true
	if f.users == nil {
		f.users = make(map[int64]*user.User)
	}
	f.users[telegramID] = u
	return 1, nil
}

// fakePlanRepo holds one latest entry per key.
type fakePlanRepo struct {
	latest        map[string]*plan.Entry
	created       []*plan.Entry
	queryRecorded []int64
	lastCount     int
}

func (f *fakePlanRepo) BulkCreate(ctx context.Context, entries []*plan.Entry) error {
	f.created = append(f.created, entries...)
	return nil
}

func (f *fakePlanRepo) LatestByKey(ctx context.Context, key string) (*plan.Entry, error) {
	if e, ok := f.latest[key]; ok {
		return e, nil
	}
	return nil, idb.ErrPlanNotFound
}

func (f *fakePlanRepo) RegisterQuery(ctx context.Context, id int64, queryCount int) error {
	f.queryRecorded = append(f.queryRecorded, id)
	f.lastCount = queryCount
	return nil
}

// keyDatasets implements only ResolveKey; the rest is unused by the intake
// path.
type keyDatasets struct {
	byMeter map[string]string
}

func (k *keyDatasets) ResolveKey(ctx context.Context, brand meter.Brand, normalized string) (string, error) {
	if key, ok := k.byMeter[normalized]; ok {
		return key, nil
	}
	return meter.EmptyKey, nil
}

func (k *keyDatasets) Info(ctx context.Context, brand meter.Brand, normalized, key string) (*meter.Info, error) {
	return nil, nil
}

func (k *keyDatasets) RelayStatus(ctx context.Context, normalized string) (*meter.RelayStatus, error) {
	return nil, nil
}

func (k *keyDatasets) LastCommunication(ctx context.Context, brand meter.Brand, normalized, key string) (*meter.LastCommunication, error) {
	return nil, nil
}

func (k *keyDatasets) CommAverages(ctx context.Context, brand meter.Brand, key string) (*meter.CommAverages, error) {
	return nil, nil
}

func (k *keyDatasets) Alarms(ctx context.Context, brand meter.Brand, normalized, key string, limit int) ([]meter.Alarm, error) {
	return nil, nil
}

func (k *keyDatasets) ServiceOrders(ctx context.Context, brand meter.Brand, key string) ([]meter.ServiceOrder, error) {
	return nil, nil
}

func (k *keyDatasets) AnalystComments(ctx context.Context, key string) ([]meter.AnalystComment, error) {
	return nil, nil
}

// fakeNotifier records sends and can be told to fail.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []fakeSend
	fail  bool
	errOn map[int64]error
}

type fakeSend struct {
	chatID int64
	text   string
}

func (f *fakeNotifier) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errOn[recipientChatID]; ok {
		return err
	}
	if f.fail {
		return errSendFailed
	}
	f.sent = append(f.sent, fakeSend{chatID: recipientChatID, text: text})
	return nil
}

func (f *fakeNotifier) sends() []fakeSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeSend, len(f.sent))
	copy(out, f.sent)
	return out
}

// staticBuilder renders a fixed text per request, or fails for chosen IDs.
type staticBuilder struct {
	failFor map[int64]error
}

func (b *staticBuilder) Build(ctx context.Context, req *request.Request) (string, error) {
	if err, ok := b.failFor[req.ID]; ok {
		return "", err
	}
	return "reporte " + req.Meter, nil
}
