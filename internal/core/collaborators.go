package core

import (
	"context"
	"time"

	"clubcore/pkg/domain"
)

// Record is the constraint every controllable entity satisfies. The methods
// are promoted from the embedded domain.Base and domain.Doc, except Clone,
// which each entity defines to return a structural copy of itself.
type Record[E any] interface {
	RecordKey() string
	TenantIDs() []string
	SearchIndex() string
	TagTokens() []string
	Clone() E
}

// ModalResult is the outcome of an edit surface interaction. Payload is only
// meaningful when Confirmed is true; constructing results through Confirmed
// and Cancelled keeps the two states from mixing.
type ModalResult[E any] struct {
	Confirmed bool
	Payload   E
}

// Confirmed wraps a payload in a confirmed modal result.
func Confirmed[E any](payload E) ModalResult[E] {
	return ModalResult[E]{Confirmed: true, Payload: payload}
}

// Cancelled returns a cancelled modal result carrying no payload.
func Cancelled[E any]() ModalResult[E] {
	return ModalResult[E]{}
}

// Scope carries the per-session context every controller operation runs
// under: acting user, current tenant, and the vocabulary the edit surface may
// offer. It replaces ambient global state so controllers stay testable.
type Scope struct {
	Tenant     string
	User       string
	ReadOnly   bool
	Categories []string
	Tags       []string
}

// EditSurface opens a modal editor over a draft entity and reports whether
// the user confirmed, together with the edited payload.
type EditSurface[E any] interface {
	Edit(ctx context.Context, draft E, scope Scope) (ModalResult[E], error)
}

// ConfirmPrompt asks the user a yes/no question.
type ConfirmPrompt interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// DatePicker asks the user for a date. ok is false when the picker was
// dismissed without a selection.
type DatePicker interface {
	PickDate(ctx context.Context) (date time.Time, ok bool, err error)
}

// RoleChecker answers permission questions for a user.
type RoleChecker interface {
	HasRole(role, user string) bool
}

// CollectionService is the remote persistence surface of one entity type.
// List returns the full tenant-scoped collection; Create and Update return
// the persistence-assigned key.
type CollectionService[E any] interface {
	List(ctx context.Context, tenant string) ([]E, error)
	Create(ctx context.Context, entity E, actingUser string) (string, error)
	Update(ctx context.Context, entity E, actingUser string) (string, error)
	Delete(ctx context.Context, entity E, actingUser string) error
}

// ValidityEnder closes the validity window of a time-bounded relationship
// entity as of a date, via update rather than delete.
type ValidityEnder[E any] interface {
	EndByDate(ctx context.Context, entity E, asOf time.Time, actingUser string) error
}

// IsCurrent reports whether the window covers the reference date, bounds
// inclusive. An open-ended window never ends.
func IsCurrent(w domain.Window, ref time.Time) bool {
	return w.Current(ref)
}
