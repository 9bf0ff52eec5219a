// Package database provides SQLite connectivity for sqlgate.
//
// This package manages:
//   - The process-wide handle on the gateway's database file
//   - Scoped per-request sessions (one fresh connection each, never reused)
//   - Access to the raw go-sqlite3 connection for installing SQL functions
//   - Health checks and connection statistics
//
// Security Considerations:
//   - Database file permissions are set to 0600 (owner read/write only)
//   - Foreign key enforcement is enabled in the DSN
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "data/sqlgate.db", BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	sess, err := db.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
package database
