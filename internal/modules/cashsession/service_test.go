package cashsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeAndSubmit(t *testing.T, h *harness, terminal, amount string) (*CashSession, error) {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr(terminal), Amount: amountPtr(amount)})
	require.NoError(t, err)
	return h.svc.SubmitOpening(ctx)
}

func TestSubmitOpeningCommits(t *testing.T) {
	h := newHarness(t, manager, nil)

	session, err := composeAndSubmit(t, h, "Terminal 2 - Bruno", "12.5")
	require.NoError(t, err)

	assert.Equal(t, "new-1", session.ID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(session.OpeningValue))
	assert.Equal(t, StatusOpen, session.Status)
	assert.Nil(t, session.ClosingTime)
	assert.Empty(t, session.ClosingOperatorName)
	assert.Equal(t, "downtown", session.StoreID)
	assert.Equal(t, "Downtown", session.StoreName)
	assert.Equal(t, "Terminal 2 - Bruno", session.RegisterName)
	assert.Equal(t, "m1", session.OpeningOperatorID)
	assert.Equal(t, "Mara", session.OpeningOperatorName)
	assert.Equal(t, fixedNow, session.OpeningTime)
	assert.Equal(t, DefaultPriceTable, session.PriceTable)

	assert.Equal(t, 1, h.reg.upserts)
	assert.Equal(t, []string{"/pdv"}, h.nav.calls())

	// Committed drafts are cleared: the workflow is idle again.
	draft, err := h.drafts.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Nil(t, draft)
	form, err := h.svc.OpeningForm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, form.State)
}

func TestSubmitOpeningCoercesInvalidAmountToZero(t *testing.T) {
	h := newHarness(t, manager, nil)

	session, err := composeAndSubmit(t, h, "Terminal 1 - Jane", "not-a-number")
	require.NoError(t, err)
	assert.True(t, session.OpeningValue.IsZero(), "got %s", session.OpeningValue)
}

func TestSubmitOpeningDefaultAmountIsZero(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()

	draft, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", draft.Amount)
	assert.Empty(t, draft.Terminal)

	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane")})
	require.NoError(t, err)
	session, err := h.svc.SubmitOpening(ctx)
	require.NoError(t, err)
	assert.True(t, session.OpeningValue.IsZero())
}

func TestSubmitOpeningValidation(t *testing.T) {
	tests := []struct {
		name     string
		actor    *user.User
		terminal string
		amount   string
		want     error
	}{
		{name: "no terminal selected", actor: manager, terminal: "", amount: "10", want: ErrNoTerminalSelected},
		{name: "terminal from another store", actor: manager, terminal: "Terminal 1 - Ana", amount: "10", want: ErrTerminalNotEligible},
		{name: "negative float", actor: manager, terminal: "Terminal 1 - Jane", amount: "-5", want: ErrNegativeOpeningValue},
		{
			name:     "store without cashiers",
			actor:    &user.User{ID: "m9", Name: "Ola", Role: user.RoleManager, StoreID: "airport"},
			terminal: "Terminal 1 - Jane",
			amount:   "10",
			want:     ErrNoEligibleTerminals,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.actor, nil)

			_, err := composeAndSubmit(t, h, tt.terminal, tt.amount)
			var fault *ValidationFault
			require.ErrorAs(t, err, &fault)
			assert.ErrorIs(t, err, tt.want)

			assert.Zero(t, h.reg.upserts, "registry must not be called")
			assert.Empty(t, h.nav.calls())

			draft, err := h.drafts.Get(context.Background(), tt.actor.ID)
			require.NoError(t, err)
			require.NotNil(t, draft)
			assert.Equal(t, StateComposing, draft.State)
			assert.Equal(t, tt.terminal, draft.Terminal)
		})
	}
}

func TestSubmitOpeningPersistenceFaultKeepsDraft(t *testing.T) {
	h := newHarness(t, manager, nil)
	h.reg.upsertErr = errors.New("connection reset")

	_, err := composeAndSubmit(t, h, "Terminal 1 - Jane", "40.00")
	var fault *PersistenceFault
	require.ErrorAs(t, err, &fault)
	assert.Empty(t, h.nav.calls())

	draft, err := h.drafts.Get(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, StateComposing, draft.State)
	assert.Equal(t, "Terminal 1 - Jane", draft.Terminal)
	assert.Equal(t, "40.00", draft.Amount)
	assert.Contains(t, draft.LastError, "connection reset")

	// Retry without re-entering anything.
	h.reg.upsertErr = nil
	session, err := h.svc.SubmitOpening(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Terminal 1 - Jane", session.RegisterName)
	assert.True(t, decimal.RequireFromString("40").Equal(session.OpeningValue))
	assert.Equal(t, "new-1", session.ID, "a retry keeps the session id")
	assert.Equal(t, 2, h.reg.upserts)
	assert.Equal(t, []string{"/pdv"}, h.nav.calls())
}

func TestSubmitOpeningRetryAfterLandedWriteDoesNotDuplicate(t *testing.T) {
	h := newHarness(t, manager, nil)
	h.reg.errAfterWrite = errors.New("timeout after commit")
	before := len(h.reg.sessions)

	_, err := composeAndSubmit(t, h, "Terminal 1 - Jane", "10")
	var fault *PersistenceFault
	require.ErrorAs(t, err, &fault)

	draft, err := h.drafts.Get(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "new-1", draft.SessionID)

	session, err := h.svc.SubmitOpening(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-1", session.ID)
	assert.Len(t, h.reg.sessions, before+1)
	assert.Equal(t, 2, h.reg.countRegister("downtown", "Terminal 1 - Jane"), "s2 plus the one new session")
}

func TestSubmitOpeningRetryPassesUniqueGuard(t *testing.T) {
	h := newHarness(t, manager, nil)
	identity := IdentityFunc(func(context.Context) *user.User { return manager })
	h.svc = NewService(h.reg, identity, h.drafts, h.nav, NewUniqueRegisterGuard(h.reg), Options{
		Now:   func() time.Time { return fixedNow },
		NewID: func() string { return "new-1" },
	})
	h.reg.errAfterWrite = errors.New("timeout after commit")

	_, err := composeAndSubmit(t, h, "Terminal 2 - Bruno", "10")
	var fault *PersistenceFault
	require.ErrorAs(t, err, &fault)

	session, err := h.svc.SubmitOpening(context.Background())
	require.NoError(t, err, "the landed write is this draft's own session")
	assert.Equal(t, "new-1", session.ID)
	assert.Equal(t, 2, h.reg.countRegister("downtown", "Terminal 2 - Bruno"))
}

func TestSubmitOpeningDraftNotClearedReadsIdle(t *testing.T) {
	h := newHarnessWithDrafts(t, manager, nil, &faultyDrafts{DraftStore: NewMemoryDraftStore()})
	ctx := context.Background()

	first, err := composeAndSubmit(t, h, "Terminal 2 - Bruno", "10")
	require.NoError(t, err)

	form, err := h.svc.OpeningForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, form.State)
	assert.Nil(t, form.Draft)

	_, err = h.svc.SubmitOpening(ctx)
	assert.ErrorIs(t, err, ErrNoOpeningInProgress)
	assert.Equal(t, 1, h.reg.upserts)
	assert.Equal(t, 2, h.reg.countRegister("downtown", "Terminal 2 - Bruno"))

	fresh, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateComposing, fresh.State)
	assert.Empty(t, fresh.SessionID)
	assert.Empty(t, fresh.Terminal)
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane")})
	require.NoError(t, err)

	second, err := h.svc.SubmitOpening(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitOpeningStuckDraftResubmitsSameSession(t *testing.T) {
	h := newHarnessWithDrafts(t, manager, nil, &faultyDrafts{DraftStore: NewMemoryDraftStore(), failCommitted: true})
	ctx := context.Background()

	first, err := composeAndSubmit(t, h, "Terminal 2 - Bruno", "10")
	require.NoError(t, err)

	draft, err := h.drafts.Get(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, StateSubmitting, draft.State)

	again, err := h.svc.SubmitOpening(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, h.reg.upserts)
	assert.Equal(t, 2, h.reg.countRegister("downtown", "Terminal 2 - Bruno"), "the second write overwrites the first")
}

func TestOpeningWorkflowRequiresIdentity(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	_, err := h.svc.BeginOpening(ctx)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane")})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.ErrorIs(t, h.svc.CancelOpening(ctx), ErrAuthenticationRequired)
	_, err = h.svc.SubmitOpening(ctx)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	_, err = h.svc.Draft(ctx)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	form, err := h.svc.OpeningForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, form.State)
	assert.Nil(t, form.Draft)
	assert.False(t, form.CanSubmit)
	assert.Zero(t, h.reg.upserts)
}

func TestSubmitOpeningHeadquartersFallback(t *testing.T) {
	t.Run("operator without store", func(t *testing.T) {
		h := newHarness(t, admin, nil)
		session, err := composeAndSubmit(t, h, "Terminal 2 - Ana", "1")
		require.NoError(t, err)
		assert.Equal(t, "matriz", session.StoreID)
		assert.Equal(t, "Matriz", session.StoreName)
	})

	t.Run("store missing from catalog", func(t *testing.T) {
		ghost := &user.User{ID: "m7", Name: "Gil", Role: user.RoleAdmin, StoreID: "ghost"}
		h := newHarness(t, ghost, nil)
		session, err := composeAndSubmit(t, h, "Terminal 1 - Jane", "1")
		require.NoError(t, err)
		assert.Equal(t, "ghost", session.StoreID)
		assert.Equal(t, "Matriz", session.StoreName)
	})
}

func TestSubmitOpeningDoesNotDeduplicateRegisters(t *testing.T) {
	h := newHarness(t, manager, nil)

	// "Terminal 1 - Jane" is already open in downtown.
	_, err := composeAndSubmit(t, h, "Terminal 1 - Jane", "5")
	require.NoError(t, err)
	_, err = composeAndSubmit(t, h, "Terminal 1 - Jane", "5")
	require.NoError(t, err)
	assert.Equal(t, 2, h.reg.upserts)
}

func TestSubmitOpeningUniqueRegisterGuard(t *testing.T) {
	h := newHarness(t, manager, nil)
	identity := IdentityFunc(func(context.Context) *user.User { return manager })
	h.svc = NewService(h.reg, identity, h.drafts, h.nav, NewUniqueRegisterGuard(h.reg), Options{
		Now: func() time.Time { return fixedNow },
	})

	_, err := composeAndSubmit(t, h, "Terminal 1 - Jane", "5")
	assert.ErrorIs(t, err, ErrRegisterInUse)
	var fault *ValidationFault
	assert.ErrorAs(t, err, &fault)
	assert.Zero(t, h.reg.upserts)

	// Bruno's register is closed, so it may be reopened.
	require.NoError(t, h.svc.CancelOpening(context.Background()))
	session, err := composeAndSubmit(t, h, "Terminal 2 - Bruno", "5")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, session.Status)
	assert.NotEmpty(t, session.ID)
}

func TestBeginOpeningIsSingleton(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()

	_, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane"), Amount: amountPtr("20")})
	require.NoError(t, err)

	again, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Terminal 1 - Jane", again.Terminal)
	assert.Equal(t, "20", again.Amount)
}

func TestCancelOpeningDiscardsDraft(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()

	_, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane")})
	require.NoError(t, err)
	require.NoError(t, h.svc.CancelOpening(ctx))

	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Amount: amountPtr("3")})
	assert.ErrorIs(t, err, ErrNoOpeningInProgress)
	_, err = h.svc.SubmitOpening(ctx)
	assert.ErrorIs(t, err, ErrNoOpeningInProgress)
	assert.Zero(t, h.reg.upserts)

	draft, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	assert.Empty(t, draft.Terminal)
	assert.Equal(t, "0", draft.Amount)
}

func TestOpeningWorkflowIsSingleActor(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()
	_, err := h.svc.BeginOpening(ctx)
	require.NoError(t, err)

	unlock, err := h.drafts.Lock(ctx, "m1")
	require.NoError(t, err)

	_, err = h.svc.SubmitOpening(ctx)
	assert.ErrorIs(t, err, ErrWorkflowBusy)
	assert.ErrorIs(t, h.svc.CancelOpening(ctx), ErrWorkflowBusy)
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane")})
	assert.ErrorIs(t, err, ErrWorkflowBusy)

	unlock()
	_, err = h.svc.ComposeOpening(ctx, ComposeRequest{Terminal: strPtr("Terminal 1 - Jane")})
	assert.NoError(t, err)
}

func TestEnter(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()

	session, err := h.svc.Enter(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", session.ID)
	assert.Equal(t, []string{"/pdv"}, h.nav.calls())

	_, err = h.svc.Enter(ctx, "s3")
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = h.svc.Enter(ctx, "s4")
	assert.ErrorIs(t, err, ErrSessionNotOpen)

	_, err = h.svc.Enter(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound, "sessions of other stores are invisible")

	assert.Equal(t, []string{"/pdv"}, h.nav.calls(), "only the open session navigates")
}

func TestList(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()

	listing, err := h.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s3", "s4"}, viewIDs(listing.Sessions))
	assert.Equal(t, 3, listing.Count)
	assert.False(t, listing.Empty)
	require.NotNil(t, listing.Store)
	assert.Equal(t, "Downtown", listing.Store.Name)
	assert.Equal(t, "14/03/2026", listing.ReferenceDate)
	assert.Equal(t, map[DisplayClass]int{DisplayOperational: 1, DisplayFinalized: 1, DisplayPending: 1}, listing.Legend)

	open := listing.Sessions[0]
	assert.True(t, open.Enterable)
	assert.Equal(t, DisplayOperational, open.DisplayClass)
	assert.Equal(t, "14/03/2026, 07:30:00", open.OpeningLabel)
	assert.Equal(t, "--:--", open.ClosingLabel)
	closed := listing.Sessions[1]
	assert.False(t, closed.Enterable)
	assert.Equal(t, "13/03/2026, 15:30:00", closed.ClosingLabel)

	listing, err = h.svc.List(ctx, "BRUNO")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, viewIDs(listing.Sessions))

	listing, err = h.svc.List(ctx, "zz")
	require.NoError(t, err)
	assert.True(t, listing.Empty)
	assert.Equal(t, "no cash sessions found", listing.Message)
	assert.Zero(t, listing.Count)
	assert.NotNil(t, listing.Sessions)
}

func TestListAdminAndAnonymous(t *testing.T) {
	listing, err := newHarness(t, admin, nil).svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, viewIDs(listing.Sessions))
	assert.Nil(t, listing.Store)

	listing, err = newHarness(t, nil, nil).svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, listing.Empty)
}

func TestOpeningForm(t *testing.T) {
	h := newHarness(t, manager, nil)
	ctx := context.Background()

	form, err := h.svc.OpeningForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, form.State)
	assert.Nil(t, form.Draft)
	assert.False(t, form.CanSubmit)
	assert.Equal(t, "Mara", form.OperatorName)
	assert.Equal(t, []string{"Terminal 1 - Jane", "Terminal 2 - Bruno"}, labels(form.Terminals))

	_, err = h.svc.BeginOpening(ctx)
	require.NoError(t, err)
	form, err = h.svc.OpeningForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateComposing, form.State)
	assert.True(t, form.CanSubmit)

	airport := newHarness(t, &user.User{ID: "m9", Role: user.RoleManager, StoreID: "airport"}, nil)
	_, err = airport.svc.BeginOpening(ctx)
	require.NoError(t, err)
	form, err = airport.svc.OpeningForm(ctx)
	require.NoError(t, err)
	assert.False(t, form.CanSubmit, "no cashiers means the submit path is disabled")
	assert.Empty(t, form.Terminals)
}

func viewIDs(views []SessionView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}
