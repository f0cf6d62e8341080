package core

import (
	"fmt"
	"os"
	"strings"

	"clubcore/internal/infra/persistence/memory"
	"clubcore/internal/infra/persistence/postgres"
	"clubcore/internal/infra/persistence/sqlite"
)

// StorageDriver names one of the snapshot store backends.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
)

// OpenPersistentStore opens the backend selected by CLUBCORE_STORAGE_DRIVER,
// defaulting to sqlite. The sqlite path and postgres DSN come from
// CLUBCORE_SQLITE_PATH and CLUBCORE_POSTGRES_DSN; internal/config resolves
// file and flag settings into these variables before this runs.
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := StorageDriver(strings.ToLower(os.Getenv("CLUBCORE_STORAGE_DRIVER")))
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite, "":
		return sqlite.NewStore(os.Getenv("CLUBCORE_SQLITE_PATH"), engine)
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("CLUBCORE_POSTGRES_DSN"), engine)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
