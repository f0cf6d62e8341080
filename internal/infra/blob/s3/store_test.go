package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"clubcore/internal/infra/blob/core"
)

func TestMockedRoundtrip(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	info, err := store.Put(ctx, "exports/club-1/2024.json", strings.NewReader("payload"), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "exports/club-1/2024.json" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if _, err := store.Put(ctx, "exports/club-1/2024.json", strings.NewReader("other"), core.PutOptions{}); err == nil {
		t.Fatal("duplicate key must fail")
	}

	got, rc, err := store.Get(ctx, "exports/club-1/2024.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "payload" {
		t.Fatalf("body mismatch: %q", body)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("content type not preserved: %+v", got)
	}

	infos, err := store.List(ctx, "exports/club-1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one listed blob, got %d", len(infos))
	}

	if _, err := store.Delete(ctx, "exports/club-1/2024.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "exports/club-1/2024.json"); err == nil {
		t.Fatal("get after delete must fail")
	}
}

func TestEnvConstructionRequiresBucket(t *testing.T) {
	t.Setenv("CLUBCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("missing bucket must fail")
	}
}

func TestDriver(t *testing.T) {
	if got := NewMockForTests().Driver(); got != core.DriverS3 {
		t.Fatalf("unexpected driver %q", got)
	}
}
