// Package config provides configuration management for the relation manager.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults live next to each field as `default` struct
// tags and are registered with Viper by reflection, so every key can be
// overridden from the environment (SECTION_KEY, e.g. DATABASE_DRIVER).
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP port, API key, body limit, shutdown deadline
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials and bucket
//   - Log: Logging level and format
//   - Reconcile: identifier key and confirmation policy
//   - Archive: reconciliation history switch and retention
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
