package taxonomy_test

import (
	"testing"

	"orthocore/testutil"
)

func TestTaxonomyHasNoStoreDependencies(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StoreDriverImportForbidden, "taxonomy is pure reference data")
	testutil.AssertNoDirectImports(t, ".", testutil.AdapterImportForbidden, "taxonomy must not know about transports")
}
