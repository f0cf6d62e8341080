// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by clubcore.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the type of record stored in a tenant collection.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityMenuItem identifies a menu item record.
	EntityMenuItem EntityType = "menu_item"
	// EntityOwnership identifies an ownership relation record.
	EntityOwnership EntityType = "ownership"
	// EntityReservation identifies a reservation record.
	EntityReservation EntityType = "reservation"
	// EntityTransfer identifies a transfer record.
	EntityTransfer EntityType = "transfer"
	// EntityWorkRelation identifies a work relation record.
	EntityWorkRelation EntityType = "work_relation"
	// EntityResource identifies a club resource record.
	EntityResource EntityType = "resource"
	// EntityPerson identifies a person record.
	EntityPerson EntityType = "person"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records. Key is assigned by the
// persistence layer on creation and is immutable afterwards.
type Base struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordKey returns the persistence-assigned key; empty for a not-yet-created record.
func (b Base) RecordKey() string { return b.Key }

// Doc carries the document-store fields shared by every entity: tenant
// scoping, the denormalized search index, and delimited tags.
type Doc struct {
	Tenants []string `json:"tenants"`
	Index   string   `json:"index"`
	Tags    string   `json:"tags"`
}

// TenantIDs returns the tenants the record is scoped to.
func (d Doc) TenantIDs() []string { return d.Tenants }

// SearchIndex returns the denormalized search blob.
func (d Doc) SearchIndex() string { return d.Index }

// TagTokens returns the record tags as individual tokens.
func (d Doc) TagTokens() []string { return SplitTags(d.Tags) }

// InTenant reports whether the record is scoped to the given tenant.
// The empty tenant matches every record.
func (d Doc) InTenant(tenant string) bool {
	if tenant == "" {
		return true
	}
	for _, t := range d.Tenants {
		if t == tenant {
			return true
		}
	}
	return false
}

// SplitTags splits a delimited tag string into trimmed non-empty tokens.
func SplitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether the delimited tag string contains token exactly.
func HasTag(tags, token string) bool {
	for _, t := range SplitTags(tags) {
		if t == token {
			return true
		}
	}
	return false
}

// BuildIndex lowercases and joins the significant fields of a record into the
// searchable index blob. Empty fields are skipped.
func BuildIndex(fields ...string) string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return strings.Join(out, " ")
}

// Person represents a club member or contact.
type Person struct {
	Base
	Doc
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	MemberNumber string `json:"member_number"`
}

// Reindex regenerates the search index from the significant person fields.
func (p *Person) Reindex() {
	p.Index = BuildIndex(p.FirstName, p.LastName, p.Email, p.MemberNumber)
}

// Clone returns a structural copy of the person.
func (p Person) Clone() Person {
	cp := p
	cp.Tenants = append([]string(nil), p.Tenants...)
	return cp
}

// Resource represents a club-owned asset members can own or reserve:
// lockers, keys, berths, boats, rooms.
type Resource struct {
	Base
	Doc
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
}

// Reindex regenerates the search index from the significant resource fields.
func (r *Resource) Reindex() {
	r.Index = BuildIndex(r.Name, r.Kind, r.Location)
}

// Clone returns a structural copy of the resource.
func (r Resource) Clone() Resource {
	cp := r
	cp.Tenants = append([]string(nil), r.Tenants...)
	return cp
}

// MenuItem represents an entry on the club restaurant menu. Seasonal items
// carry a bounded validity window.
type MenuItem struct {
	Base
	Doc
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int    `json:"price_cents"`
	Window
}

// Reindex regenerates the search index from the significant menu item fields.
func (m *MenuItem) Reindex() {
	m.Index = BuildIndex(m.Name, m.Category)
}

// Clone returns a structural copy of the menu item.
func (m MenuItem) Clone() MenuItem {
	cp := m
	cp.Tenants = append([]string(nil), m.Tenants...)
	return cp
}

// Ownership links a person to a resource for a validity window. Ownerships
// are relationship records: they are archived on delete, never removed, and
// ended by closing the window rather than deleting the record.
type Ownership struct {
	Base
	Doc
	PersonKey   string `json:"person_key"`
	ResourceKey string `json:"resource_key"`
	Kind        string `json:"kind"`
	Window
	Archived bool `json:"is_archived,omitempty"`
}

// Reindex regenerates the search index from the significant ownership fields.
func (o *Ownership) Reindex() {
	o.Index = BuildIndex(o.PersonKey, o.ResourceKey, o.Kind)
}

// Clone returns a structural copy of the ownership.
func (o Ownership) Clone() Ownership {
	cp := o
	cp.Tenants = append([]string(nil), o.Tenants...)
	return cp
}

// WorkRelation records a paid or voluntary working relationship between a
// person and the club. Like ownerships, work relations are archived rather
// than deleted and ended by date.
type WorkRelation struct {
	Base
	Doc
	PersonKey string `json:"person_key"`
	Role      string `json:"role"`
	Window
	Archived bool `json:"is_archived,omitempty"`
}

// Reindex regenerates the search index from the significant work relation fields.
func (w *WorkRelation) Reindex() {
	w.Index = BuildIndex(w.PersonKey, w.Role)
}

// Clone returns a structural copy of the work relation.
func (w WorkRelation) Clone() WorkRelation {
	cp := w
	cp.Tenants = append([]string(nil), w.Tenants...)
	return cp
}

// Reservation books a resource for a person on a specific day.
type Reservation struct {
	Base
	Doc
	ResourceKey string    `json:"resource_key"`
	PersonKey   string    `json:"person_key"`
	Date        time.Time `json:"date"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Purpose     string    `json:"purpose"`
}

// Reindex regenerates the search index from the significant reservation fields.
func (r *Reservation) Reindex() {
	r.Index = BuildIndex(r.ResourceKey, r.PersonKey, r.Purpose)
}

// Clone returns a structural copy of the reservation.
func (r Reservation) Clone() Reservation {
	cp := r
	cp.Tenants = append([]string(nil), r.Tenants...)
	return cp
}

// Transfer records a handover of money or resources between two persons.
type Transfer struct {
	Base
	Doc
	FromPersonKey string    `json:"from_person_key"`
	ToPersonKey   string    `json:"to_person_key"`
	Kind          string    `json:"kind"`
	AmountCents   int       `json:"amount_cents"`
	Date          time.Time `json:"date"`
	Note          string    `json:"note"`
}

// Reindex regenerates the search index from the significant transfer fields.
func (t *Transfer) Reindex() {
	t.Index = BuildIndex(t.FromPersonKey, t.ToPersonKey, t.Kind, t.Note)
}

// Clone returns a structural copy of the transfer.
func (t Transfer) Clone() Transfer {
	cp := t
	cp.Tenants = append([]string(nil), t.Tenants...)
	return cp
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
