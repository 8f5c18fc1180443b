package cashsession

import (
	"context"
	"fmt"
	"time"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/store"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultPriceTable is attached to every new session.
const DefaultPriceTable = "Tabela Padrão"

// Identity resolves the acting user. Current returns nil for an anonymous caller.
type Identity interface {
	Current(ctx context.Context) *user.User
}

// IdentityFunc adapts a function to Identity.
type IdentityFunc func(ctx context.Context) *user.User

func (f IdentityFunc) Current(ctx context.Context) *user.User { return f(ctx) }

// Options tunes the labels and defaults the service stamps on new sessions. Zero
// values fall back to the package defaults.
type Options struct {
	POSRoute       string
	TerminalPrefix string
	PriceTable     string
	// Headquarters is used when the operator has no resolvable home store.
	Headquarters StoreRef
	Location     *time.Location
	Now          func() time.Time
	NewID        func() string
}

func (o Options) withDefaults() Options {
	if o.POSRoute == "" {
		o.POSRoute = "/pdv"
	}
	if o.TerminalPrefix == "" {
		o.TerminalPrefix = DefaultTerminalPrefix
	}
	if o.PriceTable == "" {
		o.PriceTable = DefaultPriceTable
	}
	if o.Headquarters.ID == "" {
		o.Headquarters.ID = "matriz"
	}
	if o.Headquarters.Name == "" {
		o.Headquarters.Name = "Matriz"
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	return o
}

// ComposeRequest edits the opening draft. Nil fields are left untouched.
type ComposeRequest struct {
	Terminal *string      `json:"terminal" validate:"omitempty,max=160"`
	Amount   *AmountInput `json:"amount" validate:"omitempty,max=32"`
}

// Service defines the cash session lifecycle: scoped listing, terminal choices,
// the opening workflow and entering an open session.
type Service interface {
	List(ctx context.Context, query string) (*Listing, error)
	Terminals(ctx context.Context) ([]Terminal, error)

	OpeningForm(ctx context.Context) (*OpeningForm, error)
	// Draft returns the acting operator's opening draft, or nil when idle. It reads
	// only the draft store.
	Draft(ctx context.Context) (*Draft, error)
	BeginOpening(ctx context.Context) (*Draft, error)
	ComposeOpening(ctx context.Context, req ComposeRequest) (*Draft, error)
	CancelOpening(ctx context.Context) error
	SubmitOpening(ctx context.Context) (*CashSession, error)

	Enter(ctx context.Context, id string) (*CashSession, error)
}

type service struct {
	registry  Registry
	identity  Identity
	drafts    DraftStore
	navigator Navigator
	guard     OpenGuard
	opts      Options
}

// NewService wires the lifecycle service. A nil guard allows every opening.
func NewService(registry Registry, identity Identity, drafts DraftStore, navigator Navigator, guard OpenGuard, opts Options) Service {
	if guard == nil {
		guard = AllowAll()
	}
	return &service{
		registry:  registry,
		identity:  identity,
		drafts:    drafts,
		navigator: navigator,
		guard:     guard,
		opts:      opts.withDefaults(),
	}
}

// draftKey identifies the operator's draft. Anonymous callers have no workflow.
func draftKey(actor *user.User) (string, error) {
	if actor == nil || actor.ID == "" {
		return "", ErrAuthenticationRequired
	}
	return actor.ID, nil
}

// loadDraft reads the draft, treating a committed one as idle.
func (s *service) loadDraft(ctx context.Context, key string) (*Draft, error) {
	draft, err := s.drafts.Get(ctx, key)
	if err != nil || draft == nil {
		return nil, err
	}
	if draft.State == StateCommitted {
		return nil, nil
	}
	return draft, nil
}

// ── List / Terminals ──────────────────────────────────────────────────────────

func (s *service) List(ctx context.Context, query string) (*Listing, error) {
	actor := s.identity.Current(ctx)
	sessions, err := s.registry.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cash sessions: %w", err)
	}
	stores, err := s.registry.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	filtered := FilterByRegister(VisibleSessions(sessions, actor), query)
	return newListing(filtered, query, actorStore(actor, stores), s.opts.Now().In(s.opts.Location), s.opts.Location), nil
}

func (s *service) Terminals(ctx context.Context) ([]Terminal, error) {
	users, err := s.registry.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return EligibleTerminals(users, s.identity.Current(ctx), s.opts.TerminalPrefix), nil
}

// ── Opening workflow ──────────────────────────────────────────────────────────

func (s *service) OpeningForm(ctx context.Context) (*OpeningForm, error) {
	actor := s.identity.Current(ctx)
	var draft *Draft
	if key, err := draftKey(actor); err == nil {
		if draft, err = s.loadDraft(ctx, key); err != nil {
			return nil, err
		}
	}
	users, err := s.registry.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	stores, err := s.registry.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	form := &OpeningForm{
		State:         StateIdle,
		Draft:         draft,
		Store:         actorStore(actor, stores),
		ReferenceDate: s.opts.Now().In(s.opts.Location).Format(dateLayout),
		Terminals:     EligibleTerminals(users, actor, s.opts.TerminalPrefix),
	}
	if actor != nil {
		form.OperatorName = actor.Name
	}
	if draft != nil {
		form.State = draft.State
	}
	form.CanSubmit = form.State == StateComposing && len(form.Terminals) > 0
	return form, nil
}

func (s *service) Draft(ctx context.Context) (*Draft, error) {
	key, err := draftKey(s.identity.Current(ctx))
	if err != nil {
		return nil, err
	}
	return s.loadDraft(ctx, key)
}

func (s *service) BeginOpening(ctx context.Context) (*Draft, error) {
	key, err := draftKey(s.identity.Current(ctx))
	if err != nil {
		return nil, err
	}
	unlock, err := s.drafts.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := s.loadDraft(ctx, key)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		return draft, nil
	}
	draft = NewDraft(s.opts.Now())
	if err := s.drafts.Put(ctx, key, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *service) ComposeOpening(ctx context.Context, req ComposeRequest) (*Draft, error) {
	key, err := draftKey(s.identity.Current(ctx))
	if err != nil {
		return nil, err
	}
	unlock, err := s.drafts.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	draft, err := s.loadDraft(ctx, key)
	if err != nil {
		return nil, err
	}
	var amount *string
	if req.Amount != nil {
		a := string(*req.Amount)
		amount = &a
	}
	if err := draft.Compose(req.Terminal, amount, s.opts.Now()); err != nil {
		return nil, err
	}
	if err := s.drafts.Put(ctx, key, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *service) CancelOpening(ctx context.Context) error {
	key, err := draftKey(s.identity.Current(ctx))
	if err != nil {
		return err
	}
	unlock, err := s.drafts.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return s.drafts.Delete(ctx, key)
}

func (s *service) SubmitOpening(ctx context.Context) (*CashSession, error) {
	actor := s.identity.Current(ctx)
	key, err := draftKey(actor)
	if err != nil {
		return nil, err
	}
	unlock, err := s.drafts.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// A draft left SUBMITTING by a crashed request is stale once we hold the lock.
	draft, err := s.loadDraft(ctx, key)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, ErrNoOpeningInProgress
	}

	users, err := s.registry.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	terminal, err := draft.Validate(EligibleTerminals(users, actor, s.opts.TerminalPrefix))
	if err != nil {
		return nil, err
	}
	stores, err := s.registry.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	session := s.buildSession(draft.claimSessionID(s.opts.NewID), actor, stores, terminal, draft.OpeningValue())
	if err := s.guard.AllowOpen(ctx, session); err != nil {
		return nil, err
	}

	draft.markSubmitting(s.opts.Now())
	if err := s.drafts.Put(ctx, key, draft); err != nil {
		return nil, err
	}

	// The upsert is not cancellable once started.
	if err := s.registry.UpsertSession(context.WithoutCancel(ctx), session); err != nil {
		fault := &PersistenceFault{Err: err}
		draft.reject(fault, s.opts.Now())
		if perr := s.drafts.Put(context.WithoutCancel(ctx), key, draft); perr != nil {
			log.Error().Err(perr).Str("operator_id", key).Msg("failed to restore opening draft")
		}
		log.Warn().Err(err).
			Str("store_id", session.StoreID).
			Str("register", session.RegisterName).
			Msg("cash session opening rejected")
		return nil, fault
	}

	// The session exists now; if the draft cannot be cleared it is marked
	// committed so it reads as idle, and failing that a retry reuses the same id.
	if err := s.drafts.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Error().Err(err).Str("operator_id", key).Msg("failed to clear opening draft")
		draft.markCommitted(s.opts.Now())
		if perr := s.drafts.Put(context.WithoutCancel(ctx), key, draft); perr != nil {
			log.Error().Err(perr).Str("operator_id", key).Msg("failed to mark opening draft committed")
		}
	}
	log.Info().
		Str("session_id", session.ID).
		Str("store_id", session.StoreID).
		Str("register", session.RegisterName).
		Str("opening_value", session.OpeningValue.StringFixed(2)).
		Msg("cash session opened")

	s.navigator.GoTo(ctx, s.opts.POSRoute)
	return session, nil
}

func (s *service) buildSession(id string, actor *user.User, stores []*store.Store, terminal Terminal, value decimal.Decimal) *CashSession {
	storeID := actor.HomeStore()
	if storeID == "" {
		storeID = s.opts.Headquarters.ID
	}
	storeName := s.opts.Headquarters.Name
	if st := store.Find(stores, actor.HomeStore()); st != nil {
		storeName = st.Name
	} else {
		log.Debug().Str("store_id", storeID).Msg("operator store not in catalog, using headquarters name")
	}

	session := &CashSession{
		ID:           id,
		StoreID:      storeID,
		StoreName:    storeName,
		RegisterName: terminal.Label,
		OpeningTime:  s.opts.Now(),
		OpeningValue: value,
		Status:       StatusOpen,
		PriceTable:   s.opts.PriceTable,
	}
	if actor != nil {
		session.OpeningOperatorID = actor.ID
		session.OpeningOperatorName = actor.Name
	}
	return session
}

// ── Enter ─────────────────────────────────────────────────────────────────────

func (s *service) Enter(ctx context.Context, id string) (*CashSession, error) {
	actor := s.identity.Current(ctx)
	sessions, err := s.registry.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cash sessions: %w", err)
	}
	var session *CashSession
	for _, candidate := range VisibleSessions(sessions, actor) {
		if candidate.ID == id {
			session = candidate
			break
		}
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.CanEnter() {
		if session.Status == StatusClosed {
			return nil, ErrSessionClosed
		}
		return nil, fmt.Errorf("%w: status %s", ErrSessionNotOpen, session.Status)
	}
	s.navigator.GoTo(ctx, s.opts.POSRoute)
	return session, nil
}
