package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCreatePersonAssignsKeyAndIndex(t *testing.T) {
	svc := newTestService(t)
	created, _, err := svc.CreatePerson(context.Background(), Person{
		Doc:       Doc{Tenants: []string{testTenant}},
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.org",
	})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	if created.Key == "" {
		t.Fatal("create must assign a key")
	}
	for _, want := range []string{"alice", "smith", "alice@example.org"} {
		if !strings.Contains(created.Index, want) {
			t.Fatalf("index %q must contain %q", created.Index, want)
		}
	}
}

func TestSavePersonPreservesBaseAndReindexes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, _, err := svc.CreatePerson(ctx, Person{
		Doc:       Doc{Tenants: []string{testTenant}},
		FirstName: "Alice",
		LastName:  "Smith",
	})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}

	edited := created.Clone()
	edited.LastName = "Miller"
	updated, _, err := svc.SavePerson(ctx, edited)
	if err != nil {
		t.Fatalf("save person: %v", err)
	}
	if updated.Key != created.Key {
		t.Fatalf("save must preserve the key, got %q want %q", updated.Key, created.Key)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("save must preserve the creation timestamp")
	}
	if !strings.Contains(updated.Index, "miller") {
		t.Fatalf("save must regenerate the index, got %q", updated.Index)
	}
}

func TestDeletePersonBlockedWhileReferenced(t *testing.T) {
	svc := newTestService(t)
	ownership := newOwnershipFixture(t, svc)

	if _, err := svc.DeletePerson(context.Background(), ownership.PersonKey); err == nil {
		t.Fatal("delete must fail while the person is referenced by an ownership")
	}
}

func TestValidityWindowRuleBlocksInvertedWindow(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.CreateMenuItem(context.Background(), MenuItem{
		Doc:  Doc{Tenants: []string{testTenant}},
		Name: "Fish Soup",
		Window: Window{
			ValidFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	if err == nil {
		t.Fatal("inverted validity window must block the transaction")
	}
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected a rule violation error, got %v", err)
	}
	if !rve.Result.HasBlocking() {
		t.Fatal("violation must be blocking")
	}
}

func TestTenantScopeRuleBlocksUnscopedRecord(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.CreatePerson(context.Background(), Person{FirstName: "Nobody"})
	if err == nil {
		t.Fatal("record without tenants must block the transaction")
	}
	var rve RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected a rule violation error, got %v", err)
	}
}

func TestReservationOverlapWarns(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	resource, _, err := svc.CreateResource(ctx, Resource{
		Doc:  Doc{Tenants: []string{testTenant}},
		Name: "Clubhouse",
		Kind: "room",
	})
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, res, err := svc.CreateReservation(ctx, Reservation{
		Doc:         Doc{Tenants: []string{testTenant}},
		ResourceKey: resource.Key,
		Date:        day,
		Start:       "10:00",
		End:         "12:00",
	})
	if err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	if len(res.Warnings()) != 0 {
		t.Fatalf("single reservation must not warn, got %+v", res.Warnings())
	}

	_, res, err = svc.CreateReservation(ctx, Reservation{
		Doc:         Doc{Tenants: []string{testTenant}},
		ResourceKey: resource.Key,
		Date:        day,
		Start:       "11:00",
		End:         "13:00",
	})
	if err != nil {
		t.Fatalf("overlapping reservation must commit with a warning, got %v", err)
	}
	if len(res.Warnings()) == 0 {
		t.Fatal("overlapping reservation must produce a warning")
	}

	_, res, err = svc.CreateReservation(ctx, Reservation{
		Doc:         Doc{Tenants: []string{testTenant}},
		ResourceKey: resource.Key,
		Date:        day,
		Start:       "13:00",
		End:         "14:00",
	})
	if err != nil {
		t.Fatalf("adjacent reservation: %v", err)
	}
	if got := len(res.Warnings()); got != 1 {
		t.Fatalf("back-to-back bookings must not add an overlap, want the existing pair only, got %d warnings", got)
	}
}

func TestEndOwnershipBeforeStartFails(t *testing.T) {
	svc := newTestService(t)
	ownership := newOwnershipFixture(t, svc)

	before := ownership.ValidFrom.AddDate(0, 0, -1)
	if _, _, err := svc.EndOwnershipByDate(context.Background(), ownership.Key, before); err == nil {
		t.Fatal("ending a window before its start must fail")
	}
	if got := svc.ListOwnerships(testTenant)[0].Window; !got.OpenEnded() {
		t.Fatalf("failed end must leave the window open, got valid_to %v", got.ValidTo)
	}
}

func TestEndOwnershipOnStartDateSucceeds(t *testing.T) {
	svc := newTestService(t)
	ownership := newOwnershipFixture(t, svc)

	ended, _, err := svc.EndOwnershipByDate(context.Background(), ownership.Key, ownership.ValidFrom)
	if err != nil {
		t.Fatalf("ending on the start date must succeed: %v", err)
	}
	if !ended.ValidTo.Equal(ownership.ValidFrom) {
		t.Fatalf("window must close on the start date, got %v", ended.ValidTo)
	}
	if !ended.Current(ownership.ValidFrom) {
		t.Fatal("bounds are inclusive, the start date itself stays current")
	}
}

func TestArchiveWorkRelation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	person := seedPerson(t, svc, "Alice", "Smith", "")
	relation, _, err := svc.CreateWorkRelation(ctx, WorkRelation{
		Doc:       Doc{Tenants: []string{testTenant}},
		PersonKey: person.Key,
		Role:      "treasurer",
	})
	if err != nil {
		t.Fatalf("create work relation: %v", err)
	}

	archived, _, err := svc.ArchiveWorkRelation(ctx, relation.Key)
	if err != nil {
		t.Fatalf("archive work relation: %v", err)
	}
	if !archived.Archived {
		t.Fatal("archive must set the flag")
	}
	if got := len(svc.ListWorkRelations(testTenant)); got != 1 {
		t.Fatalf("archived relation must remain listed, got %d", got)
	}
}

func TestCreateOwnershipOpensWindowByDefault(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestService(t).Store()
	svc := NewService(store, WithLogger(testLogger()), WithNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	person := seedPerson(t, svc, "Alice", "Smith", "")
	ownership, _, err := svc.CreateOwnership(ctx, Ownership{
		Doc:       Doc{Tenants: []string{testTenant}},
		PersonKey: person.Key,
		Kind:      "key",
	})
	if err != nil {
		t.Fatalf("create ownership: %v", err)
	}
	if !ownership.ValidFrom.Equal(now) {
		t.Fatalf("zero window must open at the clock time, got %v", ownership.ValidFrom)
	}
	if !ownership.OpenEnded() {
		t.Fatal("default window must be open ended")
	}
}

func TestServiceMetricsRecorded(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	store := newTestService(t).Store()
	svc := NewService(store, WithLogger(testLogger()), WithMetricsRecorder(rec))

	if _, _, err := svc.CreatePerson(context.Background(), Person{
		Doc:       Doc{Tenants: []string{testTenant}},
		FirstName: "Alice",
	}); err != nil {
		t.Fatalf("create person: %v", err)
	}

	snap := rec.Snapshot()
	if snap.Results["create_person"]["success"] != 1 {
		t.Fatalf("expected one successful create_person observation, got %+v", snap.Results)
	}
}

func TestServiceTracesOperations(t *testing.T) {
	tracer := NewJSONTracer(nil)
	store := newTestService(t).Store()
	svc := NewService(store, WithLogger(testLogger()), WithTracer(tracer))

	_, _, _ = svc.CreatePerson(context.Background(), Person{FirstName: "Nobody"})

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one span, got %d", len(entries))
	}
	if entries[0].Operation != "create_person" || entries[0].Status != "error" {
		t.Fatalf("unexpected span: %+v", entries[0])
	}
}
