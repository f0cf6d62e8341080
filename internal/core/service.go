package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clubcore/pkg/domain"
)

// Service exposes the transactional CRUD operations of the club schema over
// a persistent store. Every write regenerates the record's search index and
// runs inside a rules-engine evaluated transaction.
type Service struct {
	store   PersistentStore
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer
	nowFn   func() time.Time
}

// ServiceOption customizes a Service at construction.
type ServiceOption func(*Service)

// WithLogger installs a structured logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder installs a metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// NewService constructs a service over the given store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  slog.Default(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// run wraps a transactional operation with tracing, metrics, and warning logs.
func (s *Service) run(ctx context.Context, operation string, fn func(tx Transaction) error) (Result, error) {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
		return res, err
	}
	for _, w := range res.Warnings() {
		s.logger.Warn("rule warning", "operation", operation, "rule", w.Rule, "message", w.Message)
	}
	return res, nil
}

// CreatePerson persists a new person.
func (s *Service) CreatePerson(ctx context.Context, person Person) (Person, Result, error) {
	var created Person
	person.Reindex()
	res, err := s.run(ctx, "create_person", func(tx Transaction) error {
		var err error
		created, err = tx.CreatePerson(person)
		return err
	})
	return created, res, err
}

// SavePerson replaces an existing person, preserving key and creation time.
func (s *Service) SavePerson(ctx context.Context, person Person) (Person, Result, error) {
	var updated Person
	res, err := s.run(ctx, "save_person", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdatePerson(person.Key, func(cur *Person) error {
			replacePerson(cur, person)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeletePerson removes a person. The store rejects the delete while the
// person is still referenced by an ownership or work relation.
func (s *Service) DeletePerson(ctx context.Context, key string) (Result, error) {
	return s.run(ctx, "delete_person", func(tx Transaction) error {
		return tx.DeletePerson(key)
	})
}

// CreateResource persists a new resource.
func (s *Service) CreateResource(ctx context.Context, resource Resource) (Resource, Result, error) {
	var created Resource
	resource.Reindex()
	res, err := s.run(ctx, "create_resource", func(tx Transaction) error {
		var err error
		created, err = tx.CreateResource(resource)
		return err
	})
	return created, res, err
}

// SaveResource replaces an existing resource.
func (s *Service) SaveResource(ctx context.Context, resource Resource) (Resource, Result, error) {
	var updated Resource
	res, err := s.run(ctx, "save_resource", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateResource(resource.Key, func(cur *Resource) error {
			replaceResource(cur, resource)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteResource removes a resource.
func (s *Service) DeleteResource(ctx context.Context, key string) (Result, error) {
	return s.run(ctx, "delete_resource", func(tx Transaction) error {
		return tx.DeleteResource(key)
	})
}

// CreateMenuItem persists a new menu item.
func (s *Service) CreateMenuItem(ctx context.Context, item MenuItem) (MenuItem, Result, error) {
	var created MenuItem
	item.Reindex()
	res, err := s.run(ctx, "create_menu_item", func(tx Transaction) error {
		var err error
		created, err = tx.CreateMenuItem(item)
		return err
	})
	return created, res, err
}

// SaveMenuItem replaces an existing menu item.
func (s *Service) SaveMenuItem(ctx context.Context, item MenuItem) (MenuItem, Result, error) {
	var updated MenuItem
	res, err := s.run(ctx, "save_menu_item", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateMenuItem(item.Key, func(cur *MenuItem) error {
			replaceMenuItem(cur, item)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteMenuItem removes a menu item.
func (s *Service) DeleteMenuItem(ctx context.Context, key string) (Result, error) {
	return s.run(ctx, "delete_menu_item", func(tx Transaction) error {
		return tx.DeleteMenuItem(key)
	})
}

// CreateOwnership persists a new ownership relation. A zero window is opened
// at the current time.
func (s *Service) CreateOwnership(ctx context.Context, ownership Ownership) (Ownership, Result, error) {
	var created Ownership
	if ownership.ValidFrom.IsZero() {
		ownership.Window = domain.OpenWindow(s.nowFn())
	}
	ownership.Reindex()
	res, err := s.run(ctx, "create_ownership", func(tx Transaction) error {
		var err error
		created, err = tx.CreateOwnership(ownership)
		return err
	})
	return created, res, err
}

// SaveOwnership replaces an existing ownership.
func (s *Service) SaveOwnership(ctx context.Context, ownership Ownership) (Ownership, Result, error) {
	var updated Ownership
	res, err := s.run(ctx, "save_ownership", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateOwnership(ownership.Key, func(cur *Ownership) error {
			replaceOwnership(cur, ownership)
			return nil
		})
		return err
	})
	return updated, res, err
}

// ArchiveOwnership marks an ownership archived. Ownerships carry audit
// history, so delete requests translate to this logical archive.
func (s *Service) ArchiveOwnership(ctx context.Context, key string) (Ownership, Result, error) {
	var archived Ownership
	res, err := s.run(ctx, "archive_ownership", func(tx Transaction) error {
		var err error
		archived, err = tx.UpdateOwnership(key, func(cur *Ownership) error {
			cur.Archived = true
			return nil
		})
		return err
	})
	return archived, res, err
}

// EndOwnershipByDate closes the ownership's validity window as of the given
// date. The date must not precede the start of the window.
func (s *Service) EndOwnershipByDate(ctx context.Context, key string, asOf time.Time) (Ownership, Result, error) {
	var ended Ownership
	res, err := s.run(ctx, "end_ownership", func(tx Transaction) error {
		var err error
		ended, err = tx.UpdateOwnership(key, func(cur *Ownership) error {
			if !cur.EndOn(asOf) {
				return fmt.Errorf("end date %s precedes start %s", asOf.Format(time.DateOnly), cur.ValidFrom.Format(time.DateOnly))
			}
			return nil
		})
		return err
	})
	return ended, res, err
}

// CreateWorkRelation persists a new work relation. A zero window is opened at
// the current time.
func (s *Service) CreateWorkRelation(ctx context.Context, relation WorkRelation) (WorkRelation, Result, error) {
	var created WorkRelation
	if relation.ValidFrom.IsZero() {
		relation.Window = domain.OpenWindow(s.nowFn())
	}
	relation.Reindex()
	res, err := s.run(ctx, "create_work_relation", func(tx Transaction) error {
		var err error
		created, err = tx.CreateWorkRelation(relation)
		return err
	})
	return created, res, err
}

// SaveWorkRelation replaces an existing work relation.
func (s *Service) SaveWorkRelation(ctx context.Context, relation WorkRelation) (WorkRelation, Result, error) {
	var updated WorkRelation
	res, err := s.run(ctx, "save_work_relation", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateWorkRelation(relation.Key, func(cur *WorkRelation) error {
			replaceWorkRelation(cur, relation)
			return nil
		})
		return err
	})
	return updated, res, err
}

// ArchiveWorkRelation marks a work relation archived instead of deleting it.
func (s *Service) ArchiveWorkRelation(ctx context.Context, key string) (WorkRelation, Result, error) {
	var archived WorkRelation
	res, err := s.run(ctx, "archive_work_relation", func(tx Transaction) error {
		var err error
		archived, err = tx.UpdateWorkRelation(key, func(cur *WorkRelation) error {
			cur.Archived = true
			return nil
		})
		return err
	})
	return archived, res, err
}

// EndWorkRelationByDate closes the work relation's validity window as of the
// given date.
func (s *Service) EndWorkRelationByDate(ctx context.Context, key string, asOf time.Time) (WorkRelation, Result, error) {
	var ended WorkRelation
	res, err := s.run(ctx, "end_work_relation", func(tx Transaction) error {
		var err error
		ended, err = tx.UpdateWorkRelation(key, func(cur *WorkRelation) error {
			if !cur.EndOn(asOf) {
				return fmt.Errorf("end date %s precedes start %s", asOf.Format(time.DateOnly), cur.ValidFrom.Format(time.DateOnly))
			}
			return nil
		})
		return err
	})
	return ended, res, err
}

// CreateReservation persists a new reservation.
func (s *Service) CreateReservation(ctx context.Context, reservation Reservation) (Reservation, Result, error) {
	var created Reservation
	reservation.Reindex()
	res, err := s.run(ctx, "create_reservation", func(tx Transaction) error {
		var err error
		created, err = tx.CreateReservation(reservation)
		return err
	})
	return created, res, err
}

// SaveReservation replaces an existing reservation.
func (s *Service) SaveReservation(ctx context.Context, reservation Reservation) (Reservation, Result, error) {
	var updated Reservation
	res, err := s.run(ctx, "save_reservation", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateReservation(reservation.Key, func(cur *Reservation) error {
			replaceReservation(cur, reservation)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteReservation removes a reservation.
func (s *Service) DeleteReservation(ctx context.Context, key string) (Result, error) {
	return s.run(ctx, "delete_reservation", func(tx Transaction) error {
		return tx.DeleteReservation(key)
	})
}

// CreateTransfer persists a new transfer.
func (s *Service) CreateTransfer(ctx context.Context, transfer Transfer) (Transfer, Result, error) {
	var created Transfer
	transfer.Reindex()
	res, err := s.run(ctx, "create_transfer", func(tx Transaction) error {
		var err error
		created, err = tx.CreateTransfer(transfer)
		return err
	})
	return created, res, err
}

// SaveTransfer replaces an existing transfer.
func (s *Service) SaveTransfer(ctx context.Context, transfer Transfer) (Transfer, Result, error) {
	var updated Transfer
	res, err := s.run(ctx, "save_transfer", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTransfer(transfer.Key, func(cur *Transfer) error {
			replaceTransfer(cur, transfer)
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteTransfer removes a transfer.
func (s *Service) DeleteTransfer(ctx context.Context, key string) (Result, error) {
	return s.run(ctx, "delete_transfer", func(tx Transaction) error {
		return tx.DeleteTransfer(key)
	})
}

// ListPersons returns the tenant-scoped person collection.
func (s *Service) ListPersons(tenant string) []Person { return s.store.ListPersons(tenant) }

// ListResources returns the tenant-scoped resource collection.
func (s *Service) ListResources(tenant string) []Resource { return s.store.ListResources(tenant) }

// ListMenuItems returns the tenant-scoped menu item collection.
func (s *Service) ListMenuItems(tenant string) []MenuItem { return s.store.ListMenuItems(tenant) }

// ListOwnerships returns the tenant-scoped ownership collection.
func (s *Service) ListOwnerships(tenant string) []Ownership { return s.store.ListOwnerships(tenant) }

// ListWorkRelations returns the tenant-scoped work relation collection.
func (s *Service) ListWorkRelations(tenant string) []WorkRelation {
	return s.store.ListWorkRelations(tenant)
}

// ListReservations returns the tenant-scoped reservation collection.
func (s *Service) ListReservations(tenant string) []Reservation {
	return s.store.ListReservations(tenant)
}

// ListTransfers returns the tenant-scoped transfer collection.
func (s *Service) ListTransfers(tenant string) []Transfer { return s.store.ListTransfers(tenant) }

// The replace helpers overwrite every mutable field of a stored record while
// keeping the key and creation timestamp, then regenerate the search index.

func replacePerson(cur *Person, next Person) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}

func replaceResource(cur *Resource, next Resource) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}

func replaceMenuItem(cur *MenuItem, next MenuItem) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}

func replaceOwnership(cur *Ownership, next Ownership) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}

func replaceWorkRelation(cur *WorkRelation, next WorkRelation) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}

func replaceReservation(cur *Reservation, next Reservation) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}

func replaceTransfer(cur *Transfer, next Transfer) {
	base := cur.Base
	*cur = next
	cur.Base = base
	cur.Reindex()
}
