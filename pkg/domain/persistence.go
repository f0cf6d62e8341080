package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreatePerson(Person) (Person, error)
	UpdatePerson(key string, mutator func(*Person) error) (Person, error)
	DeletePerson(key string) error
	CreateResource(Resource) (Resource, error)
	UpdateResource(key string, mutator func(*Resource) error) (Resource, error)
	DeleteResource(key string) error
	CreateMenuItem(MenuItem) (MenuItem, error)
	UpdateMenuItem(key string, mutator func(*MenuItem) error) (MenuItem, error)
	DeleteMenuItem(key string) error
	CreateOwnership(Ownership) (Ownership, error)
	UpdateOwnership(key string, mutator func(*Ownership) error) (Ownership, error)
	CreateWorkRelation(WorkRelation) (WorkRelation, error)
	UpdateWorkRelation(key string, mutator func(*WorkRelation) error) (WorkRelation, error)
	CreateReservation(Reservation) (Reservation, error)
	UpdateReservation(key string, mutator func(*Reservation) error) (Reservation, error)
	DeleteReservation(key string) error
	CreateTransfer(Transfer) (Transfer, error)
	UpdateTransfer(key string, mutator func(*Transfer) error) (Transfer, error)
	DeleteTransfer(key string) error
	FindPerson(key string) (Person, bool)
	FindResource(key string) (Resource, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListPersons() []Person
	ListResources() []Resource
	ListReservations() []Reservation
	ListOwnerships() []Ownership
	FindPerson(key string) (Person, bool)
	FindResource(key string) (Resource, bool)
}

// PersistentStore is a minimal abstraction over durable backends. List
// operations are scoped to a tenant; the empty tenant returns every record.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPerson(key string) (Person, bool)
	ListPersons(tenant string) []Person
	GetResource(key string) (Resource, bool)
	ListResources(tenant string) []Resource
	ListMenuItems(tenant string) []MenuItem
	ListOwnerships(tenant string) []Ownership
	ListWorkRelations(tenant string) []WorkRelation
	ListReservations(tenant string) []Reservation
	ListTransfers(tenant string) []Transfer
	Close() error
}
