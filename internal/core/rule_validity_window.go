package core

import (
	"context"
	"fmt"

	"clubcore/pkg/domain"
)

// NewValidityWindowRule returns the in-transaction rule blocking records whose
// validity window ends before it starts.
func NewValidityWindowRule() domain.Rule {
	return validityWindowRule{}
}

type validityWindowRule struct{}

func (validityWindowRule) Name() string { return "validity_window" }

func (validityWindowRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		window, key, ok := changeWindow(change.After)
		if !ok {
			continue
		}
		if window.OpenEnded() || !window.ValidTo.Before(window.ValidFrom) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "validity_window",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s: valid_to precedes valid_from", change.Entity, key),
			Entity:   change.Entity,
			EntityID: key,
		})
	}
	return res, nil
}

// changeWindow extracts the validity window from a change payload, if the
// entity type carries one.
func changeWindow(payload any) (domain.Window, string, bool) {
	switch e := payload.(type) {
	case domain.MenuItem:
		return e.Window, e.Key, true
	case domain.Ownership:
		return e.Window, e.Key, true
	case domain.WorkRelation:
		return e.Window, e.Key, true
	}
	return domain.Window{}, "", false
}
