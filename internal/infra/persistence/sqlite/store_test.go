package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clubcore/pkg/domain"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return store
}

func TestPersistAndReloadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clubcore.db")

	store := openStore(t, path)
	var person domain.Person
	var ownership domain.Ownership
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		person, err = tx.CreatePerson(domain.Person{
			Doc:       domain.Doc{Tenants: []string{"club-1"}},
			FirstName: "Alice",
		})
		if err != nil {
			return err
		}
		ownership, err = tx.CreateOwnership(domain.Ownership{
			Doc:       domain.Doc{Tenants: []string{"club-1"}},
			PersonKey: person.Key,
			Kind:      "locker",
			Window:    domain.OpenWindow(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path)
	defer func() { _ = reopened.Close() }()

	got, ok := reopened.GetPerson(person.Key)
	if !ok || got.FirstName != "Alice" {
		t.Fatalf("person did not survive reload: %+v ok=%v", got, ok)
	}
	ownerships := reopened.ListOwnerships("club-1")
	if len(ownerships) != 1 || ownerships[0].Key != ownership.Key {
		t.Fatalf("ownership did not survive reload: %+v", ownerships)
	}
	if !ownerships[0].OpenEnded() {
		t.Fatal("open window must survive the JSON roundtrip")
	}
}

func TestFailedTransactionLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clubcore.db")

	store := openStore(t, path)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		// Resources require a name, so this create fails inside the callback.
		_, err := tx.CreateResource(domain.Resource{Doc: domain.Doc{Tenants: []string{"club-1"}}})
		return err
	})
	if err == nil {
		t.Fatal("expected create to fail")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openStore(t, path)
	defer func() { _ = reopened.Close() }()
	if resources := reopened.ListResources(""); len(resources) != 0 {
		t.Fatalf("failed transaction must not persist, found %+v", resources)
	}
}

func TestNestedDirectoriesCreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "clubcore.db")

	store := openStore(t, path)
	defer func() { _ = store.Close() }()
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
}
