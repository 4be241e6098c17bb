// Package database provides the revision Store used by a schemachain Provider to persist the
// current revision of a database, and an Executor that applies schema operations as dialect
// specific DDL.
//
// The revision table is append-only. Every transition inserts a row whose seq is one greater than
// the previous row, and seq is the primary key, so two runners that start from the same state
// cannot both record a transition. The row with the highest seq is the current state.
package database
