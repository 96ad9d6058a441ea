// Package policy holds the access-control decisions for trips.
// Every decision is a pure function over a trip and an acting principal id,
// and every mutating service call must consult it before touching the
// database — visibility filtering in queries alone is not enforcement.
package policy

import "github.com/tabiplan/backend/internal/domain"

// CanRead reports whether the principal may view the trip: the owner and
// every share-list member have read access.
func CanRead(trip domain.Trip, principalID string) bool {
	if principalID == "" {
		return false
	}
	if trip.CreatedBy == principalID {
		return true
	}
	for _, id := range trip.SharedWith {
		if id == principalID {
			return true
		}
	}
	return false
}

// CanWrite reports whether the principal may modify the trip. Only the
// owner may write; share members are read-only no matter what the share
// list says.
func CanWrite(trip domain.Trip, principalID string) bool {
	return principalID != "" && trip.CreatedBy == principalID
}

// CanDelete reports whether the principal may delete the trip.
// Deletion rights are identical to write rights.
func CanDelete(trip domain.Trip, principalID string) bool {
	return CanWrite(trip, principalID)
}
