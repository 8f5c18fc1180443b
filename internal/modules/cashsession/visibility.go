package cashsession

import (
	"strings"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
)

// inScope is the store scoping rule shared by sessions and operators: admins see
// every store, everyone else only their home store. An actor without a home store
// (including a missing actor) matches nothing.
func inScope(actor *user.User, storeID string) bool {
	if actor.IsAdmin() {
		return true
	}
	home := actor.HomeStore()
	return home != "" && storeID == home
}

// VisibleSessions returns the sessions the actor may see, in input order.
func VisibleSessions(sessions []*CashSession, actor *user.User) []*CashSession {
	visible := make([]*CashSession, 0, len(sessions))
	for _, s := range sessions {
		if inScope(actor, s.StoreID) {
			visible = append(visible, s)
		}
	}
	return visible
}

// VisibleCashiers returns the CASHIER users the actor may pair with a terminal,
// in directory order.
func VisibleCashiers(users []*user.User, actor *user.User) []*user.User {
	var cashiers []*user.User
	for _, u := range users {
		if u.IsCashier() && inScope(actor, u.StoreID) {
			cashiers = append(cashiers, u)
		}
	}
	return cashiers
}

// FilterByRegister keeps sessions whose register name contains query, ignoring
// case. An empty query returns sessions unchanged.
func FilterByRegister(sessions []*CashSession, query string) []*CashSession {
	if query == "" {
		return sessions
	}
	q := strings.ToLower(query)
	matched := make([]*CashSession, 0, len(sessions))
	for _, s := range sessions {
		if strings.Contains(strings.ToLower(s.RegisterName), q) {
			matched = append(matched, s)
		}
	}
	return matched
}
