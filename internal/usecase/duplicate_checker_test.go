package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"support-kb-ingest/internal/domain/ports/adapter"
)

func seedStore(store *memStore, keys ...string) {
	for _, k := range keys {
		store.objects[k] = adapter.PutObjectInput{Key: k}
	}
}

func TestScanDuplicateChecker(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.pageSize = 2
	seedStore(store,
		"account/iam/2025-01/1.json",
		"billing/s3/2025-02/19999.json",
		"technical/ec2/2025-03/99999.json",
		"technical/rds/2025-03/123.json",
		"technical/vpc/2025-04/999.json",
	)
	c := NewScanDuplicateChecker(store, nopLogger())
	ctx := context.Background()

	cases := map[string]bool{
		"99999": true,
		"123":   true,
		"1":     true,
		"9999":  false, // suffix of 19999 and 99999 but not a whole segment
		"12":    false,
		"42":    false,
	}
	for id, want := range cases {
		if got := c.Exists(ctx, id); got != want {
			t.Errorf("Exists(%s) = %v, want %v", id, got, want)
		}
	}
}

func TestScanDuplicateChecker_ScansEveryPage(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.pageSize = 10
	for i := 0; i < 95; i++ {
		seedStore(store, fmt.Sprintf("technical/ec2/2025-01/%03d.json", i))
	}
	c := NewScanDuplicateChecker(store, nopLogger())

	if !c.Exists(context.Background(), "094") {
		t.Fatal("key on the last page should be found")
	}
	if store.lists != 10 {
		t.Fatalf("want 10 list calls, got %d", store.lists)
	}
}

func TestScanDuplicateChecker_FailsOpen(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seedStore(store, "technical/ec2/2025-03/99999.json")
	store.listErr = errors.New("network down")
	c := NewScanDuplicateChecker(store, nopLogger())

	if c.Exists(context.Background(), "99999") {
		t.Fatal("listing failure must be treated as not archived")
	}
}

func TestIndexedDuplicateChecker(t *testing.T) {
	t.Parallel()
	idx := newMemArchiveIndex()
	_ = idx.Complete(context.Background(), archiveEntry("77"))
	store := newMemStore()
	seedStore(store, "technical/ec2/2025-03/88.json")
	c := NewIndexedDuplicateChecker(idx, NewScanDuplicateChecker(store, nopLogger()), nopLogger())
	ctx := context.Background()

	if !c.Exists(ctx, "77") {
		t.Error("indexed display id should be found")
	}
	if c.Exists(ctx, "88") {
		t.Error("healthy index is authoritative; no scan expected")
	}
	if store.lists != 0 {
		t.Errorf("unexpected scans: %d", store.lists)
	}

	idx.existErr = errors.New("db down")
	if !c.Exists(ctx, "88") {
		t.Error("index failure should fall back to the namespace scan")
	}
}
