package reference

import (
	"context"
	"errors"
	"slices"
	"testing"

	"orthocore/internal/blob"
)

func TestStat(t *testing.T) {
	ctx := context.Background()
	objects := readTestdata(t)
	objects["README"] = "bundle notes"
	objects["old/cogs.txt"] = "1: LUCA\n"
	src, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory, Objects: objects})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	inv, err := Stat(ctx, src, DefaultFiles())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	keys := make([]string, 0, len(inv.Tables))
	for _, info := range inv.Tables {
		if info.Size != int64(len(objects[info.Key])) {
			t.Fatalf("%s: expected size %d, got %d", info.Key, len(objects[info.Key]), info.Size)
		}
		keys = append(keys, info.Key)
	}
	if !slices.Equal(keys, DefaultFiles().Keys()) {
		t.Fatalf("unexpected table order %v", keys)
	}
	if !slices.Equal(inv.Unreferenced, []string{"README", "old/cogs.txt"}) {
		t.Fatalf("unexpected unreferenced keys %v", inv.Unreferenced)
	}
}

func TestStatMissingTable(t *testing.T) {
	ctx := context.Background()
	objects := readTestdata(t)
	delete(objects, DefaultFiles().Tissues)
	src, err := blob.Open(ctx, blob.Config{Driver: blob.DriverMemory, Objects: objects})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = Stat(ctx, src, DefaultFiles())
	var malformed *MalformedError
	if !errors.As(err, &malformed) || malformed.File != DefaultFiles().Tissues {
		t.Fatalf("expected malformed error for the tissue table, got %v", err)
	}
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}
}
