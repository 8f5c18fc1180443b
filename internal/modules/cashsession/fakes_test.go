package cashsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/store"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
)

// ── In-memory Registry ────────────────────────────────────────────────────────

type fakeRegistry struct {
	mu        sync.Mutex
	sessions  []*CashSession
	users     []*user.User
	stores    []*store.Store
	upsertErr error
	upserts   int
	// errAfterWrite is returned once by UpsertSession after the write is applied.
	errAfterWrite error
	// outage makes a failed upsert take every later read down with it.
	outage bool
	down   bool
}

var errRegistryDown = errors.New("registry unavailable")

func (r *fakeRegistry) ListSessions(context.Context) ([]*CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errRegistryDown
	}
	return append([]*CashSession(nil), r.sessions...), nil
}

func (r *fakeRegistry) ListUsers(context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errRegistryDown
	}
	return r.users, nil
}

func (r *fakeRegistry) ListStores(context.Context) ([]*store.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errRegistryDown
	}
	return r.stores, nil
}

func (r *fakeRegistry) UpsertSession(_ context.Context, s *CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		r.down = r.outage
		return r.upsertErr
	}
	if err := r.write(s); err != nil {
		return err
	}
	if err := r.errAfterWrite; err != nil {
		r.errAfterWrite = nil
		return err
	}
	return nil
}

func (r *fakeRegistry) write(s *CashSession) error {
	for i, existing := range r.sessions {
		if existing.ID == s.ID {
			if !CanTransition(existing.Status, s.Status) {
				return ErrIllegalTransition
			}
			r.sessions[i] = s
			return nil
		}
	}
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeRegistry) countRegister(storeID, register string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.StoreID == storeID && s.RegisterName == register {
			n++
		}
	}
	return n
}

var _ Registry = (*fakeRegistry)(nil)

// ── Faulty DraftStore ─────────────────────────────────────────────────────────

// faultyDrafts wraps a DraftStore whose Delete always fails and whose Put fails
// for committed drafts when failCommitted is set.
type faultyDrafts struct {
	DraftStore
	failCommitted bool
}

var errDraftStore = errors.New("draft store unavailable")

func (f *faultyDrafts) Delete(context.Context, string) error { return errDraftStore }

func (f *faultyDrafts) Put(ctx context.Context, key string, d *Draft) error {
	if f.failCommitted && d.State == StateCommitted {
		return errDraftStore
	}
	return f.DraftStore.Put(ctx, key, d)
}

// ── Recording Navigator ───────────────────────────────────────────────────────

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) GoTo(_ context.Context, route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// ── Harness ───────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newFixtureRegistry() *fakeRegistry {
	return &fakeRegistry{
		stores: []*store.Store{
			{ID: "downtown", Name: "Downtown"},
			{ID: "uptown", Name: "Uptown"},
			{ID: "airport", Name: "Airport"},
		},
		users: []*user.User{
			{ID: "c1", Name: "Jane", Role: user.RoleCashier, StoreID: "downtown"},
			{ID: "c2", Name: "Ana", Role: user.RoleCashier, StoreID: "uptown"},
			{ID: "c3", Name: "Bruno", Role: user.RoleCashier, StoreID: "downtown"},
			{ID: "m1", Name: "Mara", Role: user.RoleManager, StoreID: "downtown"},
			{ID: "a1", Name: "Root", Role: user.RoleAdmin},
		},
		sessions: []*CashSession{
			{ID: "s1", StoreID: "uptown", StoreName: "Uptown", RegisterName: "Terminal 1 - Ana", Status: StatusOpen, OpeningTime: fixedNow.Add(-3 * time.Hour)},
			{ID: "s2", StoreID: "downtown", StoreName: "Downtown", RegisterName: "Terminal 1 - Jane", Status: StatusOpen, OpeningTime: fixedNow.Add(-2 * time.Hour)},
			{ID: "s3", StoreID: "downtown", StoreName: "Downtown", RegisterName: "Terminal 2 - Bruno", Status: StatusClosed, OpeningTime: fixedNow.Add(-26 * time.Hour), ClosingTime: ptrTime(fixedNow.Add(-18 * time.Hour)), ClosingOperatorName: "Mara"},
			{ID: "s4", StoreID: "downtown", StoreName: "Downtown", RegisterName: "Terminal 9 - Legacy", Status: Status("PENDING"), OpeningTime: fixedNow.Add(-50 * time.Hour)},
		},
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

type harness struct {
	svc    Service
	reg    *fakeRegistry
	nav    *recordingNavigator
	drafts DraftStore
}

func newHarness(t *testing.T, actor *user.User, guard OpenGuard) *harness {
	t.Helper()
	return newHarnessWithDrafts(t, actor, guard, NewMemoryDraftStore())
}

func newHarnessWithDrafts(t *testing.T, actor *user.User, guard OpenGuard, drafts DraftStore) *harness {
	t.Helper()
	reg := newFixtureRegistry()
	nav := &recordingNavigator{}
	seq := 0
	svc := NewService(reg, IdentityFunc(func(context.Context) *user.User { return actor }), drafts, nav, guard, Options{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("new-%d", seq)
		},
	})
	return &harness{svc: svc, reg: reg, nav: nav, drafts: drafts}
}

func strPtr(s string) *string { return &s }

func amountPtr(s string) *AmountInput {
	a := AmountInput(s)
	return &a
}

var (
	manager = &user.User{ID: "m1", Name: "Mara", Role: user.RoleManager, StoreID: "downtown"}
	admin   = &user.User{ID: "a1", Name: "Root", Role: user.RoleAdmin}
)
