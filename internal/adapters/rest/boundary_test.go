package rest

import (
	"testing"

	"clubcore/testutil"
)

func TestHandlerDoesNotImportStorageBackends(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.PersistenceImportForbidden,
		"HTTP handlers go through core.Service, not the storage backends")
}
