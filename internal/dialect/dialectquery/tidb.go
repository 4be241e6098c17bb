package dialectquery

// Tidb is MySQL compatible for everything schemachain needs.
type Tidb struct {
	Mysql
}

var _ Querier = (*Tidb)(nil)
