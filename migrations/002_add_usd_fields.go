package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

// addUSDFields records purchases made in US dollars alongside the local currency.
func addUSDFields() *schemachain.Step {
	supplier := nullable("supplier_name", schema.String(255))
	unitPrice := nullable("unit_price_usd", usd())
	rate := nullable("exchange_rate", usd())
	lastCost := nullable("last_purchase_cost_usd", usd())
	return &schemachain.Step{
		Revision: RevAddUSDFields,
		Parent:   RevInitial,
		Up: []schema.Operation{
			addColumn("stock_movements", supplier),
			addColumn("stock_movements", unitPrice),
			addColumn("stock_movements", rate),
			addColumn("stock", lastCost),
		},
		Down: []schema.Operation{
			dropColumn("stock", lastCost),
			dropColumn("stock_movements", rate),
			dropColumn("stock_movements", unitPrice),
			dropColumn("stock_movements", supplier),
		},
	}
}
