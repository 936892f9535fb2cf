// Package policy holds the attempt/access predicates the dashboard consults
// before handing a user to the exam session engine. The engine trusts its
// caller and performs no re-validation.
package policy

import "github.com/SaidjonAlixon/testblok/internal/models"

// HasAccess reports whether the user may see the direction's exam at all:
// either the direction is free and the one-time free trial is unconsumed, or
// the direction id has been granted to the user.
func HasAccess(user *models.User, direction *models.Direction) bool {
	if user == nil || direction == nil {
		return false
	}
	if direction.IsFree && !user.FreeTestUsed {
		return true
	}
	return user.HasDirection(direction.ID)
}

// CanStart reports whether the user has an attempt left to spend. The free
// trial bypasses the attempt counter; MaxTestAttempts of -1 means unlimited.
func CanStart(user *models.User, direction *models.Direction) bool {
	if user == nil || direction == nil {
		return false
	}
	if direction.IsFree && !user.FreeTestUsed {
		return true
	}
	return user.TestAttempts < user.MaxTestAttempts || user.HasUnlimitedAttempts()
}

// NeedsPayment reports whether the path to another attempt runs through a
// payment: either the user holds access but is out of attempts, or lacks
// access to a paid direction. An exhausted attempt counter on a granted
// direction trips CanStart separately; both signals feed the UI.
func NeedsPayment(user *models.User, direction *models.Direction) bool {
	if user == nil || direction == nil {
		return false
	}
	if direction.IsFree && !user.FreeTestUsed {
		return false
	}
	if user.HasDirection(direction.ID) && !CanStart(user, direction) {
		return true
	}
	if !user.HasDirection(direction.ID) && !direction.IsFree {
		return true
	}
	return false
}
