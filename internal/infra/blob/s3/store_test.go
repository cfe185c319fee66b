package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"orthocore/internal/blob/core"
)

func TestStoreGetHeadList(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests(map[string]string{
		"ontology/cogs.txt":          "1: LUCA\n",
		"ontology/taxonomy_tree.tsv": "h1\nh2\n",
		"other/readme":               "x",
	})
	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	info, rc, err := store.Get(ctx, "ontology/cogs.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "1: LUCA\n" || info.ETag != "etag123" {
		t.Fatalf("unexpected get result %q %+v", b, info)
	}

	head, err := store.Head(ctx, "ontology/cogs.txt")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != int64(len("1: LUCA\n")) {
		t.Fatalf("unexpected head size %d", head.Size)
	}
	if head.ETag != "etag123" || head.ContentType != "text/plain" {
		t.Fatalf("unexpected head metadata %+v", head)
	}

	list, err := store.List(ctx, "ontology/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "ontology/cogs.txt" || list[1].Key != "ontology/taxonomy_tree.tsv" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestStoreMissingKeyIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests(nil)
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
}

func TestStorePrefixedKeys(t *testing.T) {
	store := NewMockForTests(map[string]string{"release-5/cogs.txt": "1: LUCA\n"})
	store.prefix = "release-5"
	_, rc, err := store.Get(context.Background(), "cogs.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = rc.Close()
	list, err := store.List(context.Background(), "")
	if err != nil || len(list) != 1 || list[0].Key != "cogs.txt" {
		t.Fatalf("unexpected prefixed list %+v %v", list, err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}
