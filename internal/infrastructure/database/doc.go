// Package database provides the SQLite connection behind durable session storage.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Schema migrations loaded from an fs.FS (embedded by the migrations package)
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database directory is created 0700 and the file is chmod 0600,
//     since it holds the bearer token
//
// Usage:
//
//	db, err := database.Open(database.ConfigFrom(cfg.Storage))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
