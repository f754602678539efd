// Package all wires every built-in storage backend into the storage
// factory.
//
// This package exists purely for side effects: importing it (even as a
// blank import) runs the init functions of each concrete backend, which
// register their factories with the storage package. Importing it makes
// the following kinds available at runtime:
//
//   - "sqlite"   (insights/internal/storage/sqlite)
//   - "postgres" (insights/internal/storage/postgres)
package all

import (
	_ "insights/internal/storage/postgres"
	_ "insights/internal/storage/sqlite"
)
