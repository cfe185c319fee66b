package reference

import (
	"context"

	"orthocore/internal/blob"
)

// Inventory describes the reference objects held by a blob store.
type Inventory struct {
	// Tables holds the metadata of each configured table, in Files order.
	Tables []blob.Info
	// Unreferenced lists stored keys that no table points at.
	Unreferenced []string
}

// Keys returns the configured table keys in a fixed order.
func (f Files) Keys() []string {
	return []string{f.Orthgroups, f.SpeciesTissues, f.Tissues, f.Taxonomy}
}

// Stat looks up every configured table without reading it, then lists the
// store to report objects outside the configured set.
func Stat(ctx context.Context, src blob.Reader, files Files) (Inventory, error) {
	var inv Inventory
	known := make(map[string]struct{}, 4)
	for _, key := range files.Keys() {
		info, err := src.Head(ctx, key)
		if err != nil {
			return Inventory{}, &MalformedError{File: key, Reason: "unreadable", Err: err}
		}
		inv.Tables = append(inv.Tables, info)
		known[key] = struct{}{}
	}
	all, err := src.List(ctx, "")
	if err != nil {
		return Inventory{}, err
	}
	for _, info := range all {
		if _, ok := known[info.Key]; !ok {
			inv.Unreferenced = append(inv.Unreferenced, info.Key)
		}
	}
	return inv, nil
}
