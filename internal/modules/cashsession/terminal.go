package cashsession

import (
	"fmt"

	"github.com/georgemunganga/printa-cashdesk/internal/modules/user"
)

// DefaultTerminalPrefix starts every terminal label unless configured otherwise.
const DefaultTerminalPrefix = "Terminal"

// Terminal is a register choice offered when opening a session: a 1-based position
// paired with a cashier operator.
type Terminal struct {
	Position     int    `json:"position"`
	OperatorID   string `json:"operator_id"`
	OperatorName string `json:"operator_name"`
	Label        string `json:"label"`
}

// TerminalLabel formats the register name stored on a session.
func TerminalLabel(prefix string, position int, name string) string {
	return fmt.Sprintf("%s %d - %s", prefix, position, name)
}

// EligibleTerminals derives the terminal choices for actor from the user
// directory. Positions follow the directory order, so they shift when users are
// added or reordered.
func EligibleTerminals(users []*user.User, actor *user.User, prefix string) []Terminal {
	if prefix == "" {
		prefix = DefaultTerminalPrefix
	}
	cashiers := VisibleCashiers(users, actor)
	terminals := make([]Terminal, 0, len(cashiers))
	for i, u := range cashiers {
		terminals = append(terminals, Terminal{
			Position:     i + 1,
			OperatorID:   u.ID,
			OperatorName: u.Name,
			Label:        TerminalLabel(prefix, i+1, u.Name),
		})
	}
	return terminals
}

func findTerminal(terminals []Terminal, label string) (Terminal, bool) {
	for _, t := range terminals {
		if t.Label == label {
			return t, true
		}
	}
	return Terminal{}, false
}
