package memory

import (
	"context"
	"errors"
	"io"
	"testing"

	"orthocore/internal/blob/core"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewWithObjects(map[string]string{"a/1": "one", "a/2": "two", "b": "three"})
	if err := s.Put("a/1", []byte("dup")); err == nil {
		t.Fatalf("expected duplicate failure")
	}
	info, rc, err := s.Get(ctx, "a/2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "two" || info.Size != 3 || info.ETag == "" {
		t.Fatalf("unexpected get %q %+v", b, info)
	}
	list, _ := s.List(ctx, "a/")
	if len(list) != 2 || list[0].Key != "a/1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, err := s.Head(ctx, "zzz"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
