package core

import (
	"context"
	"fmt"

	"clubcore/pkg/domain"
)

// NewTenantScopeRule returns the in-transaction rule blocking records that
// carry no tenant. Every document in the store must be scoped to at least one
// tenant; an unscoped record would be invisible to every query.
func NewTenantScopeRule() domain.Rule {
	return tenantScopeRule{}
}

type tenantScopeRule struct{}

func (tenantScopeRule) Name() string { return "tenant_scope" }

func (tenantScopeRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		doc, key, ok := changeDoc(change.After)
		if !ok || len(doc.Tenants) > 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "tenant_scope",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s carries no tenant", change.Entity, key),
			Entity:   change.Entity,
			EntityID: key,
		})
	}
	return res, nil
}

func changeDoc(payload any) (domain.Doc, string, bool) {
	switch e := payload.(type) {
	case domain.Person:
		return e.Doc, e.Key, true
	case domain.Resource:
		return e.Doc, e.Key, true
	case domain.MenuItem:
		return e.Doc, e.Key, true
	case domain.Ownership:
		return e.Doc, e.Key, true
	case domain.WorkRelation:
		return e.Doc, e.Key, true
	case domain.Reservation:
		return e.Doc, e.Key, true
	case domain.Transfer:
		return e.Doc, e.Key, true
	}
	return domain.Doc{}, "", false
}
