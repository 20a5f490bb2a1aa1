// Package database handles database connections and schema inspection.
//
// It provides a thin wrapper around GORM that opens MySQL or SQLite connections
// from the application's configuration.
//
// # Connect
//
// Connect picks the dialector from Config.Driver, applies pool settings and
// verifies the connection with a ping bounded by Config.TimeoutSeconds. SQLite
// connections are limited to a single open connection so ":memory:" databases
// survive between queries.
//
// # Schema Inspection
//
// GetTableColumns reads live column definitions (SHOW COLUMNS on MySQL,
// PRAGMA table_info on SQLite). MissingColumns compares them to the columns a
// relation expects, which the relation verifier uses to report foreign keys
// and junction tables that were never migrated.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "person_cities", "person_id", "city_id")
package database
