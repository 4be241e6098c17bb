package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

func addProductUSDColor() *schemachain.Step {
	salePrice := nullable("sale_price_usd", usd())
	vipPrice := nullable("vip_price_usd", usd())
	color := nullable("color", schema.String(32))
	favorite := schema.Column{Name: "is_favorite", Type: schema.Boolean(), Default: schema.BoolValue(false)}
	sortOrder := schema.Column{Name: "sort_order", Type: schema.Integer(), Default: schema.IntValue(0)}
	return &schemachain.Step{
		Revision: RevAddProductUSDColor,
		Parent:   RevAddUSDFields,
		Up: []schema.Operation{
			addColumn("products", salePrice),
			addColumn("products", vipPrice),
			addColumn("products", color),
			addColumn("products", favorite),
			addColumn("products", sortOrder),
		},
		Down: []schema.Operation{
			dropColumn("products", sortOrder),
			dropColumn("products", favorite),
			dropColumn("products", color),
			dropColumn("products", vipPrice),
			dropColumn("products", salePrice),
		},
	}
}
