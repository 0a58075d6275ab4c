// Package types defines the screen definition data model, the field kind
// variant, the sample business entities, the persistence interfaces, and the
// standard errors shared by the builder, the metadata resolver, and the
// SQLite store.
//
// See SPEC_FULL.md § Data Model and § Error Handling Design.
package types
