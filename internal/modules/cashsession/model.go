package cashsession

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a cash session. Only OPEN and CLOSED are
// produced; values read from storage that are neither are kept as-is and shown as
// pending.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Known reports whether s is one of the produced states.
func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusClosed:
		return true
	}
	return false
}

// CanTransition reports whether a session may move from one status to another.
// OPEN is the only initial state and CLOSED is terminal; re-asserting the current
// status is allowed so upserts stay idempotent.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return from == StatusOpen && to == StatusClosed
}

// DisplayClass is the presentation bucket a status resolves to.
type DisplayClass string

const (
	DisplayOperational DisplayClass = "operational"
	DisplayFinalized   DisplayClass = "finalized"
	DisplayPending     DisplayClass = "pending"
)

// DisplayClassOf maps every status to exactly one display class.
func DisplayClassOf(s Status) DisplayClass {
	switch s {
	case StatusOpen:
		return DisplayOperational
	case StatusClosed:
		return DisplayFinalized
	default:
		return DisplayPending
	}
}

// CashSession is one operating period of a point-of-sale register.
type CashSession struct {
	ID                  string          `json:"id"`
	StoreID             string          `json:"store_id"`
	StoreName           string          `json:"store_name"`
	RegisterName        string          `json:"register_name"`
	OpeningTime         time.Time       `json:"opening_time"`
	ClosingTime         *time.Time      `json:"closing_time,omitempty"`
	OpeningOperatorID   string          `json:"opening_operator_id"`
	OpeningOperatorName string          `json:"opening_operator_name"`
	ClosingOperatorName string          `json:"closing_operator_name,omitempty"`
	OpeningValue        decimal.Decimal `json:"opening_value"`
	Status              Status          `json:"status"`
	PriceTable          string          `json:"price_table"`
}

// CanEnter reports whether the point-of-sale screen may be opened for s.
func (s *CashSession) CanEnter() bool { return s != nil && s.Status == StatusOpen }

// StoreRef identifies a store by id and display name.
type StoreRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
