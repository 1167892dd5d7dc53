// Package database provides SQLite connectivity for the UPS monitor.
//
// This package manages:
//   - The connection, opened in WAL mode with a single pooled connection
//   - Schema migrations read from an fs.FS (see the top-level migrations package)
//   - Health checks used by the API
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
