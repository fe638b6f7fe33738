// Package rolegate decide si un actor puede ejecutar una acción privilegiada
// según sus roles, una allow-list y una lista opcional de usuarios bypass.
package rolegate

// Allowed es true si el actor está en bypass o tiene algún rol de allow.
// Las entradas vacías de allow se ignoran (config incompleta no abre la puerta).
func Allowed(actorID string, actorRoles, allow, bypass []string) bool {
	for _, id := range bypass {
		if id != "" && id == actorID {
			return true
		}
	}
	if len(allow) == 0 || len(actorRoles) == 0 {
		return false
	}
	held := make(map[string]struct{}, len(actorRoles))
	for _, r := range actorRoles {
		held[r] = struct{}{}
	}
	for _, want := range allow {
		if want == "" {
			continue
		}
		if _, ok := held[want]; ok {
			return true
		}
	}
	return false
}

// Policy nombra cada allow-list configurable.
type Policy int

const (
	Runners Policy = iota
	Teams
	RuleGates
	TicketMenu
	TicketForceClose
	Setup
)

func (p Policy) String() string {
	switch p {
	case Runners:
		return "runners"
	case Teams:
		return "teams"
	case RuleGates:
		return "rule_gates"
	case TicketMenu:
		return "ticket_menu"
	case TicketForceClose:
		return "ticket_force_close"
	case Setup:
		return "setup"
	}
	return "unknown"
}
