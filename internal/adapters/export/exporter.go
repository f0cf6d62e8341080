// Package export builds tenant data archives and stores them as blobs.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"clubcore/internal/core"
	"clubcore/internal/infra/blob"
)

// Archive is the JSON document written for one tenant export. It snapshots
// every collection the tenant can see at the moment of the export.
type Archive struct {
	Tenant        string              `json:"tenant"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Persons       []core.Person       `json:"persons"`
	Resources     []core.Resource     `json:"resources"`
	MenuItems     []core.MenuItem     `json:"menu_items"`
	Ownerships    []core.Ownership    `json:"ownerships"`
	WorkRelations []core.WorkRelation `json:"work_relations"`
	Reservations  []core.Reservation  `json:"reservations"`
	Transfers     []core.Transfer     `json:"transfers"`
}

// Exporter assembles archives from the service and persists them to the
// configured blob store under a per-tenant key prefix.
type Exporter struct {
	svc    *core.Service
	store  blob.Store
	logger *slog.Logger
	nowFn  func() time.Time
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLogger installs a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(e *Exporter) {
		if fn != nil {
			e.nowFn = fn
		}
	}
}

// New constructs an exporter over the service and blob store.
func New(svc *core.Service, store blob.Store, opts ...Option) *Exporter {
	e := &Exporter{
		svc:    svc,
		store:  store,
		logger: slog.Default(),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func tenantSegment(tenant string) string {
	if tenant == "" {
		return "all"
	}
	return tenant
}

func prefix(tenant string) string {
	return fmt.Sprintf("exports/%s/", tenantSegment(tenant))
}

// Export snapshots the tenant's collections into a JSON archive and stores
// it. The returned info carries the blob key the archive lives under.
func (e *Exporter) Export(ctx context.Context, tenant string) (blob.Info, error) {
	now := e.nowFn()
	archive := Archive{
		Tenant:        tenant,
		GeneratedAt:   now,
		Persons:       e.svc.ListPersons(tenant),
		Resources:     e.svc.ListResources(tenant),
		MenuItems:     e.svc.ListMenuItems(tenant),
		Ownerships:    e.svc.ListOwnerships(tenant),
		WorkRelations: e.svc.ListWorkRelations(tenant),
		Reservations:  e.svc.ListReservations(tenant),
		Transfers:     e.svc.ListTransfers(tenant),
	}
	payload, err := json.Marshal(archive)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode archive: %w", err)
	}
	key := fmt.Sprintf("%s%s.json", prefix(tenant), now.Format("20060102T150405Z"))
	info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"tenant": tenantSegment(tenant)},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store archive: %w", err)
	}
	e.logger.Info("tenant archive exported", "tenant", tenantSegment(tenant), "key", info.Key, "bytes", info.Size)
	return info, nil
}

// List returns the stored archives for a tenant, oldest first.
func (e *Exporter) List(ctx context.Context, tenant string) ([]blob.Info, error) {
	return e.store.List(ctx, prefix(tenant))
}

// Fetch loads a stored archive by blob key and decodes it.
func (e *Exporter) Fetch(ctx context.Context, key string) (Archive, error) {
	_, rc, err := e.store.Get(ctx, key)
	if err != nil {
		return Archive{}, fmt.Errorf("fetch archive: %w", err)
	}
	defer func() { _ = rc.Close() }()
	var archive Archive
	if err := json.NewDecoder(rc).Decode(&archive); err != nil {
		return Archive{}, fmt.Errorf("decode archive: %w", err)
	}
	return archive, nil
}
