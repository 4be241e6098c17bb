package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

// addEditTracking marks stock movements that were corrected after the fact, and by whom.
func addEditTracking() *schemachain.Step {
	edited := schema.Column{Name: "is_edited", Type: schema.Boolean(), Default: schema.BoolValue(false)}
	editedBy := nullable("edited_by", schema.BigInteger())
	reason := nullable("edit_reason", schema.String(255))
	return &schemachain.Step{
		Revision: RevAddEditTracking,
		Parent:   RevAddTelegramID,
		Up: []schema.Operation{
			addColumn("stock_movements", edited),
			addColumn("stock_movements", editedBy),
			addColumn("stock_movements", reason),
		},
		Down: []schema.Operation{
			dropColumn("stock_movements", reason),
			dropColumn("stock_movements", editedBy),
			dropColumn("stock_movements", edited),
		},
	}
}
