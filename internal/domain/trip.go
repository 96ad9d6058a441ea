// Package domain contains the core data types for the trip planner.
// This package has zero external dependencies beyond the uuid type and is
// imported by every other internal package (repo, policy, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the central shareable plan record. CreatedBy is the owning
// principal's id and is immutable after creation. SharedWith grants read
// access only; it never needs to contain CreatedBy — display logic adds the
// owner back when resolving member names.
type Trip struct {
	ID           uuid.UUID     `json:"id"`
	TripName     string        `json:"trip_name"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Budget       int64         `json:"budget"`
	Notes        string        `json:"notes,omitempty"`
	CreatedBy    string        `json:"created_by"`
	SharedWith   []string      `json:"shared_with"`
	Destinations []Destination `json:"destinations"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TripDraft carries the client-supplied fields for a create or a full
// update. CreatedBy is deliberately absent: the service sets the owner from
// the authenticated principal so a client can never spoof it.
type TripDraft struct {
	TripName     string
	StartDate    time.Time
	EndDate      time.Time
	Budget       int64
	Notes        string
	SharedWith   []string
	Destinations []Destination
}

// TripView is a display-ready trip: the persisted record annotated with the
// resolved display names of everyone on the plan (share members plus the
// owner, de-duplicated, in share-list order with the owner last).
type TripView struct {
	Trip
	SharedUsers []string `json:"shared_users"`
}

// TotalCost sums the cost of every destination on the trip.
func (t Trip) TotalCost() int64 {
	var sum int64
	for _, d := range t.Destinations {
		sum += d.Cost
	}
	return sum
}

// BudgetBalance returns budget minus total destination cost. A negative
// value means the plan is over budget by that amount.
func (t Trip) BudgetBalance() int64 {
	return t.Budget - t.TotalCost()
}

// Members returns SharedWith plus CreatedBy with duplicates removed,
// preserving share-list order and appending the owner last. This is the id
// list handed to display-name resolution.
func (t Trip) Members() []string {
	seen := make(map[string]struct{}, len(t.SharedWith)+1)
	members := make([]string, 0, len(t.SharedWith)+1)
	for _, id := range append(append([]string{}, t.SharedWith...), t.CreatedBy) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	return members
}
