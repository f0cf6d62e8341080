package export

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clubcore/internal/core"
	blobmemory "clubcore/internal/infra/blob/memory"
	"clubcore/internal/infra/persistence/memory"
)

func newExportFixture(t *testing.T) (*core.Service, *Exporter) {
	t.Helper()
	store := memory.NewStore(core.NewDefaultRulesEngine())
	svc := core.NewService(store, core.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	exporter := New(svc, blobmemory.New(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNowFunc(func() time.Time { return now }))
	return svc, exporter
}

func seedTenant(t *testing.T, svc *core.Service, tenant string) {
	t.Helper()
	ctx := context.Background()
	person, _, err := svc.CreatePerson(ctx, core.Person{
		Doc:       core.Doc{Tenants: []string{tenant}},
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	resource, _, err := svc.CreateResource(ctx, core.Resource{
		Doc:  core.Doc{Tenants: []string{tenant}},
		Name: "Locker 12",
		Kind: "locker",
	})
	require.NoError(t, err)
	_, _, err = svc.CreateOwnership(ctx, core.Ownership{
		Doc:         core.Doc{Tenants: []string{tenant}},
		PersonKey:   person.Key,
		ResourceKey: resource.Key,
		Kind:        "locker",
	})
	require.NoError(t, err)
}

func TestExportWritesTenantArchive(t *testing.T) {
	svc, exporter := newExportFixture(t)
	seedTenant(t, svc, "club-1")
	seedTenant(t, svc, "club-2")

	info, err := exporter.Export(context.Background(), "club-1")
	require.NoError(t, err)
	require.Equal(t, "exports/club-1/20240601T120000Z.json", info.Key)
	require.Equal(t, "application/json", info.ContentType)

	archive, err := exporter.Fetch(context.Background(), info.Key)
	require.NoError(t, err)
	require.Equal(t, "club-1", archive.Tenant)
	require.Len(t, archive.Persons, 1)
	require.Len(t, archive.Ownerships, 1)
	require.Empty(t, archive.Reservations)
}

func TestExportScopesToTenant(t *testing.T) {
	svc, exporter := newExportFixture(t)
	seedTenant(t, svc, "club-1")
	seedTenant(t, svc, "club-2")

	info, err := exporter.Export(context.Background(), "club-2")
	require.NoError(t, err)

	archive, err := exporter.Fetch(context.Background(), info.Key)
	require.NoError(t, err)
	require.Len(t, archive.Persons, 1)
	require.Equal(t, []string{"club-2"}, archive.Persons[0].Tenants)
}

func TestListReturnsTenantArchivesOnly(t *testing.T) {
	svc, exporter := newExportFixture(t)
	seedTenant(t, svc, "club-1")

	_, err := exporter.Export(context.Background(), "club-1")
	require.NoError(t, err)

	infos, err := exporter.List(context.Background(), "club-1")
	require.NoError(t, err)
	require.Len(t, infos, 1)

	infos, err = exporter.List(context.Background(), "club-2")
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestHandlerCreateListFetch(t *testing.T) {
	svc, exporter := newExportFixture(t)
	seedTenant(t, svc, "club-1")
	handler := NewHandler(exporter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/exports?tenant=club-1", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Export struct {
			Key string `json:"key"`
		} `json:"export"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Export.Key)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports?tenant=club-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/"+created.Export.Key, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		Archive Archive `json:"archive"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Equal(t, "club-1", fetched.Archive.Tenant)
}

func TestHandlerRejectsUnknownKey(t *testing.T) {
	_, exporter := newExportFixture(t)
	handler := NewHandler(exporter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/exports/club-1/missing.json", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
