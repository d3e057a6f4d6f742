// Package manager provides server-level database operations: checking for and
// creating the database that holds the user table.
//
// Identifiers are quoted with pgx.Identifier.Sanitize, so names containing
// spaces, quotes or semicolons are safe.
//
// CREATE DATABASE cannot run inside a transaction block; callers pass an
// autocommit session such as the one returned by db.Connector.Dial:
//
//	conn, err := connector.ForDatabase("postgres").Dial(ctx)
//	created, err := manager.EnsureDatabase(ctx, conn, "alx_prodev")
package manager
