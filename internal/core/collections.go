package core

import (
	"context"
	"time"
)

// Collection adapters bind the transactional service to the generic
// controller contract, one per entity type. Relationship collections
// translate Delete into a logical archive and additionally implement
// ValidityEnder.

var (
	_ CollectionService[Person]       = PersonCollection{}
	_ CollectionService[Resource]     = ResourceCollection{}
	_ CollectionService[MenuItem]     = MenuItemCollection{}
	_ CollectionService[Ownership]    = OwnershipCollection{}
	_ CollectionService[WorkRelation] = WorkRelationCollection{}
	_ CollectionService[Reservation]  = ReservationCollection{}
	_ CollectionService[Transfer]     = TransferCollection{}
	_ ValidityEnder[Ownership]        = OwnershipCollection{}
	_ ValidityEnder[WorkRelation]     = WorkRelationCollection{}
)

// PersonCollection adapts person CRUD to the controller contract.
type PersonCollection struct{ svc *Service }

// NewPersonCollection builds a person collection over the service.
func NewPersonCollection(svc *Service) PersonCollection { return PersonCollection{svc: svc} }

func (c PersonCollection) List(_ context.Context, tenant string) ([]Person, error) {
	return c.svc.ListPersons(tenant), nil
}

func (c PersonCollection) Create(ctx context.Context, entity Person, _ string) (string, error) {
	created, _, err := c.svc.CreatePerson(ctx, entity)
	return created.Key, err
}

func (c PersonCollection) Update(ctx context.Context, entity Person, _ string) (string, error) {
	updated, _, err := c.svc.SavePerson(ctx, entity)
	return updated.Key, err
}

func (c PersonCollection) Delete(ctx context.Context, entity Person, _ string) error {
	_, err := c.svc.DeletePerson(ctx, entity.Key)
	return err
}

// ResourceCollection adapts resource CRUD to the controller contract.
type ResourceCollection struct{ svc *Service }

// NewResourceCollection builds a resource collection over the service.
func NewResourceCollection(svc *Service) ResourceCollection { return ResourceCollection{svc: svc} }

func (c ResourceCollection) List(_ context.Context, tenant string) ([]Resource, error) {
	return c.svc.ListResources(tenant), nil
}

func (c ResourceCollection) Create(ctx context.Context, entity Resource, _ string) (string, error) {
	created, _, err := c.svc.CreateResource(ctx, entity)
	return created.Key, err
}

func (c ResourceCollection) Update(ctx context.Context, entity Resource, _ string) (string, error) {
	updated, _, err := c.svc.SaveResource(ctx, entity)
	return updated.Key, err
}

func (c ResourceCollection) Delete(ctx context.Context, entity Resource, _ string) error {
	_, err := c.svc.DeleteResource(ctx, entity.Key)
	return err
}

// MenuItemCollection adapts menu item CRUD to the controller contract.
type MenuItemCollection struct{ svc *Service }

// NewMenuItemCollection builds a menu item collection over the service.
func NewMenuItemCollection(svc *Service) MenuItemCollection { return MenuItemCollection{svc: svc} }

func (c MenuItemCollection) List(_ context.Context, tenant string) ([]MenuItem, error) {
	return c.svc.ListMenuItems(tenant), nil
}

func (c MenuItemCollection) Create(ctx context.Context, entity MenuItem, _ string) (string, error) {
	created, _, err := c.svc.CreateMenuItem(ctx, entity)
	return created.Key, err
}

func (c MenuItemCollection) Update(ctx context.Context, entity MenuItem, _ string) (string, error) {
	updated, _, err := c.svc.SaveMenuItem(ctx, entity)
	return updated.Key, err
}

func (c MenuItemCollection) Delete(ctx context.Context, entity MenuItem, _ string) error {
	_, err := c.svc.DeleteMenuItem(ctx, entity.Key)
	return err
}

// OwnershipCollection adapts ownership CRUD to the controller contract.
// Delete archives the record; the history stays queryable.
type OwnershipCollection struct{ svc *Service }

// NewOwnershipCollection builds an ownership collection over the service.
func NewOwnershipCollection(svc *Service) OwnershipCollection { return OwnershipCollection{svc: svc} }

func (c OwnershipCollection) List(_ context.Context, tenant string) ([]Ownership, error) {
	return c.svc.ListOwnerships(tenant), nil
}

func (c OwnershipCollection) Create(ctx context.Context, entity Ownership, _ string) (string, error) {
	created, _, err := c.svc.CreateOwnership(ctx, entity)
	return created.Key, err
}

func (c OwnershipCollection) Update(ctx context.Context, entity Ownership, _ string) (string, error) {
	updated, _, err := c.svc.SaveOwnership(ctx, entity)
	return updated.Key, err
}

func (c OwnershipCollection) Delete(ctx context.Context, entity Ownership, _ string) error {
	_, _, err := c.svc.ArchiveOwnership(ctx, entity.Key)
	return err
}

func (c OwnershipCollection) EndByDate(ctx context.Context, entity Ownership, asOf time.Time, _ string) error {
	_, _, err := c.svc.EndOwnershipByDate(ctx, entity.Key, asOf)
	return err
}

// WorkRelationCollection adapts work relation CRUD to the controller
// contract. Delete archives the record.
type WorkRelationCollection struct{ svc *Service }

// NewWorkRelationCollection builds a work relation collection over the service.
func NewWorkRelationCollection(svc *Service) WorkRelationCollection {
	return WorkRelationCollection{svc: svc}
}

func (c WorkRelationCollection) List(_ context.Context, tenant string) ([]WorkRelation, error) {
	return c.svc.ListWorkRelations(tenant), nil
}

func (c WorkRelationCollection) Create(ctx context.Context, entity WorkRelation, _ string) (string, error) {
	created, _, err := c.svc.CreateWorkRelation(ctx, entity)
	return created.Key, err
}

func (c WorkRelationCollection) Update(ctx context.Context, entity WorkRelation, _ string) (string, error) {
	updated, _, err := c.svc.SaveWorkRelation(ctx, entity)
	return updated.Key, err
}

func (c WorkRelationCollection) Delete(ctx context.Context, entity WorkRelation, _ string) error {
	_, _, err := c.svc.ArchiveWorkRelation(ctx, entity.Key)
	return err
}

func (c WorkRelationCollection) EndByDate(ctx context.Context, entity WorkRelation, asOf time.Time, _ string) error {
	_, _, err := c.svc.EndWorkRelationByDate(ctx, entity.Key, asOf)
	return err
}

// ReservationCollection adapts reservation CRUD to the controller contract.
type ReservationCollection struct{ svc *Service }

// NewReservationCollection builds a reservation collection over the service.
func NewReservationCollection(svc *Service) ReservationCollection {
	return ReservationCollection{svc: svc}
}

func (c ReservationCollection) List(_ context.Context, tenant string) ([]Reservation, error) {
	return c.svc.ListReservations(tenant), nil
}

func (c ReservationCollection) Create(ctx context.Context, entity Reservation, _ string) (string, error) {
	created, _, err := c.svc.CreateReservation(ctx, entity)
	return created.Key, err
}

func (c ReservationCollection) Update(ctx context.Context, entity Reservation, _ string) (string, error) {
	updated, _, err := c.svc.SaveReservation(ctx, entity)
	return updated.Key, err
}

func (c ReservationCollection) Delete(ctx context.Context, entity Reservation, _ string) error {
	_, err := c.svc.DeleteReservation(ctx, entity.Key)
	return err
}

// TransferCollection adapts transfer CRUD to the controller contract.
type TransferCollection struct{ svc *Service }

// NewTransferCollection builds a transfer collection over the service.
func NewTransferCollection(svc *Service) TransferCollection { return TransferCollection{svc: svc} }

func (c TransferCollection) List(_ context.Context, tenant string) ([]Transfer, error) {
	return c.svc.ListTransfers(tenant), nil
}

func (c TransferCollection) Create(ctx context.Context, entity Transfer, _ string) (string, error) {
	created, _, err := c.svc.CreateTransfer(ctx, entity)
	return created.Key, err
}

func (c TransferCollection) Update(ctx context.Context, entity Transfer, _ string) (string, error) {
	updated, _, err := c.svc.SaveTransfer(ctx, entity)
	return updated.Key, err
}

func (c TransferCollection) Delete(ctx context.Context, entity Transfer, _ string) error {
	_, err := c.svc.DeleteTransfer(ctx, entity.Key)
	return err
}
