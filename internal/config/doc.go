// Package config provides centralized configuration for the pivot pipeline.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML file: pivot.yaml or configs/pivot.yaml
//	3. Default values (lowest priority)
//
// The defaults are the fixed constants of a standard run, so with no file
// and no environment the pipeline fetches the assessment export, writes
// skill_test_data.xlsx and pivot_table.xlsx, and replaces table pivot_table
// in african_cow.db.
//
// # Environment Variables
//
// All environment variables follow the pattern PIVOT_<SECTION>_<FIELD>:
//
//	PIVOT_FETCH_MODE=http
//	PIVOT_FETCH_PAGE_URL=https://example.com/export
//	PIVOT_STORAGE_DATABASE_FILE=/tmp/pivot.db
//	PIVOT_LOGGING_LEVEL=debug
//	PIVOT_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/pivot.prom
//
// Unprefixed names such as TABLE_NAME or TIMEOUT are never read.
//
// # Validation
//
// Load validates struct tags with go-playground/validator and checks that
// the sort and currency columns are drawn from the value columns.
package config
