package core

import (
	"context"
	"fmt"

	"clubcore/pkg/domain"
)

// NewReservationOverlapRule returns the in-transaction rule warning when two
// reservations book the same resource for overlapping times on the same day.
// Overlaps warn rather than block: concurrent edits are uncoordinated and the
// last write wins, so the rule surfaces the conflict without rejecting it.
func NewReservationOverlapRule() domain.Rule {
	return reservationOverlapRule{}
}

type reservationOverlapRule struct{}

func (reservationOverlapRule) Name() string { return "reservation_overlap" }

func (reservationOverlapRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	reservations := view.ListReservations()
	res := domain.Result{}
	for i, a := range reservations {
		for _, b := range reservations[i+1:] {
			if a.ResourceKey != b.ResourceKey {
				continue
			}
			if !sameDay(a, b) {
				continue
			}
			if !clockOverlap(a.Start, a.End, b.Start, b.End) {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "reservation_overlap",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("reservation %s overlaps %s on resource %s", a.Key, b.Key, a.ResourceKey),
				Entity:   domain.EntityReservation,
				EntityID: a.Key,
			})
		}
	}
	return res, nil
}

func sameDay(a, b domain.Reservation) bool {
	ay, am, ad := a.Date.Date()
	by, bm, bd := b.Date.Date()
	return ay == by && am == bm && ad == bd
}

// clockOverlap compares "HH:MM" strings lexically; an empty bound means the
// reservation covers the whole day.
func clockOverlap(aStart, aEnd, bStart, bEnd string) bool {
	if aStart == "" || bStart == "" {
		return true
	}
	if aEnd == "" {
		aEnd = "24:00"
	}
	if bEnd == "" {
		bEnd = "24:00"
	}
	return aStart < bEnd && bStart < aEnd
}
