// Package db manages the PostgreSQL connection pool: retrying connect,
// goose migrations from an embedded filesystem, and a transaction helper.
package db
