package dialectquery

// Turso is libSQL, which is SQLite compatible. Statements over the remote protocol are not
// rolled back as a unit, so DDL is treated as non-transactional.
type Turso struct {
	Sqlite3
}

var _ Querier = (*Turso)(nil)

func (t *Turso) TransactionalDDL() bool { return false }
