package cashsession

import (
	"time"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/store"
	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
)

const (
	timestampLayout = "02/01/2006, 15:04:05"
	dateLayout      = "02/01/2006"
	noTimestamp     = "--:--"

	emptyListingMessage = "no cash sessions found"
)

// SessionView is a session as listed to an operator.
type SessionView struct {
	*CashSession
	DisplayClass DisplayClass `json:"display_class"`
	Enterable    bool         `json:"can_enter"`
	OpeningLabel string       `json:"opening_label"`
	ClosingLabel string       `json:"closing_label"`
}

// Listing is the scoped, filtered session list. Empty distinguishes "nothing
// matches" from a failed lookup.
type Listing struct {
	Store         *StoreRef            `json:"store,omitempty"`
	Query         string               `json:"query"`
	ReferenceDate string               `json:"reference_date"`
	Sessions      []SessionView        `json:"sessions"`
	Count         int                  `json:"count"`
	Empty         bool                 `json:"empty"`
	Message       string               `json:"message,omitempty"`
	Legend        map[DisplayClass]int `json:"legend"`
}

// OpeningForm is everything the opening dialog shows: the draft, the terminals to
// choose from and who is opening where.
type OpeningForm struct {
	State         WorkflowState `json:"state"`
	Draft         *Draft        `json:"draft,omitempty"`
	Store         *StoreRef     `json:"store,omitempty"`
	OperatorName  string        `json:"operator_name"`
	ReferenceDate string        `json:"reference_date"`
	Terminals     []Terminal    `json:"terminals"`
	CanSubmit     bool          `json:"can_submit"`
}

func newListing(sessions []*CashSession, query string, st *StoreRef, now time.Time, loc *time.Location) *Listing {
	l := &Listing{
		Store:         st,
		Query:         query,
		ReferenceDate: now.Format(dateLayout),
		Sessions:      make([]SessionView, 0, len(sessions)),
		Count:         len(sessions),
		Empty:         len(sessions) == 0,
		Legend: map[DisplayClass]int{
			DisplayPending:     0,
			DisplayOperational: 0,
			DisplayFinalized:   0,
		},
	}
	if l.Empty {
		l.Message = emptyListingMessage
	}
	for _, s := range sessions {
		class := DisplayClassOf(s.Status)
		l.Legend[class]++
		l.Sessions = append(l.Sessions, SessionView{
			CashSession:  s,
			DisplayClass: class,
			Enterable:    s.CanEnter(),
			OpeningLabel: formatTimestamp(&s.OpeningTime, loc),
			ClosingLabel: formatTimestamp(s.ClosingTime, loc),
		})
	}
	return l
}

func formatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return noTimestamp
	}
	return t.In(loc).Format(timestampLayout)
}

func actorStore(actor *user.User, stores []*store.Store) *StoreRef {
	st := store.Find(stores, actor.HomeStore())
	if st == nil {
		return nil
	}
	return &StoreRef{ID: st.ID, Name: st.Name}
}
