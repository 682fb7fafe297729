package service

import "github.com/smartadmission/admissions-api/internal/models"

// TransitionPolicy governs which status changes an admin may perform.
// The zero value permits any transition between known statuses.
type TransitionPolicy struct {
	// Strict restricts moves to the forward review flow:
	// Pending -> Reviewing -> Accepted or Rejected.
	Strict bool
	// LockTerminal freezes records once a decision has been made.
	LockTerminal bool
}

// Allowed reports whether the policy permits moving a record from one status
// to another. Setting a record to its current status is always permitted.
func (p TransitionPolicy) Allowed(from, to models.Status) bool {
	if from == to {
		return true
	}
	if p.LockTerminal && from.Terminal() {
		return false
	}
	if !p.Strict {
		return true
	}
	switch from {
	case models.StatusPending:
		return to == models.StatusReviewing
	case models.StatusReviewing:
		return to == models.StatusAccepted || to == models.StatusRejected
	default:
		return false
	}
}
