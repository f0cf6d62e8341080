package domain

import (
	"context"
	"fmt"
)

// Rule inspects the pending changes of a transaction against the state the
// commit would produce. Rules only report findings; they never mutate the
// view.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error)
}

// RulesEngine runs registered rules inside the transaction boundary and
// folds their findings into a single Result.
type RulesEngine struct {
	rules []Rule
}

func NewRulesEngine() *RulesEngine { return &RulesEngine{} }

// Register adds rules. They run in registration order.
func (e *RulesEngine) Register(rules ...Rule) {
	e.rules = append(e.rules, rules...)
}

// Evaluate runs every rule. Violations from all rules are merged; the
// caller decides whether the blocking ones abort the commit. A rule that
// fails outright stops the evaluation.
func (e *RulesEngine) Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error) {
	var merged Result
	for _, r := range e.rules {
		res, err := r.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", r.Name(), err)
		}
		merged.Merge(res)
	}
	return merged, nil
}
