// Package db embeds the storefront's PostgreSQL schema.
package db

import _ "embed"

// Schema creates the catalog, coupon and order tables. It is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
