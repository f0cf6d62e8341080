package core

import (
	"time"

	"clubcore/pkg/domain"
)

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Doc                = domain.Doc
	Window             = domain.Window
	Person             = domain.Person
	Resource           = domain.Resource
	MenuItem           = domain.MenuItem
	Ownership          = domain.Ownership
	WorkRelation       = domain.WorkRelation
	Reservation        = domain.Reservation
	Transfer           = domain.Transfer
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityMenuItem     = domain.EntityMenuItem
	EntityOwnership    = domain.EntityOwnership
	EntityReservation  = domain.EntityReservation
	EntityTransfer     = domain.EntityTransfer
	EntityWorkRelation = domain.EntityWorkRelation
	EntityResource     = domain.EntityResource
	EntityPerson       = domain.EntityPerson
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// EndOfTime re-exports the open-ended window sentinel.
var EndOfTime = domain.EndOfTime

// OpenWindow returns a window starting at from with no end date.
func OpenWindow(from time.Time) Window { return domain.OpenWindow(from) }

// NewRulesEngine re-exports the domain constructor for core consumers.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewValidityWindowRule())
	engine.Register(NewTenantScopeRule())
	engine.Register(NewReservationOverlapRule())
	return engine
}
