package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

// initial creates the baseline tables that later steps extend.
func initial() *schemachain.Step {
	products := schema.CreateTable{Table: "products", Columns: []schema.Column{
		id(),
		{Name: "name", Type: schema.String(255)},
		nullable("sku", schema.String(64)),
		{Name: "sale_price", Type: money(), Default: schema.DecimalValue("0")},
	}}
	stock := schema.CreateTable{Table: "stock", Columns: []schema.Column{
		id(),
		{Name: "product_id", Type: schema.BigInteger()},
		{Name: "quantity", Type: quantity(), Default: schema.DecimalValue("0")},
		nullable("last_purchase_cost", money()),
	}}
	movements := schema.CreateTable{Table: "stock_movements", Columns: []schema.Column{
		id(),
		{Name: "product_id", Type: schema.BigInteger()},
		{Name: "quantity", Type: quantity()},
		nullable("unit_price", money()),
		{Name: "movement_type", Type: schema.String(16)},
	}}
	customers := schema.CreateTable{Table: "customers", Columns: []schema.Column{
		id(),
		{Name: "name", Type: schema.String(255)},
		nullable("phone", schema.String(32)),
	}}
	users := schema.CreateTable{Table: "users", Columns: []schema.Column{
		id(),
		{Name: "username", Type: schema.String(64)},
		nullable("full_name", schema.String(255)),
		{Name: "role", Type: schema.String(32), Default: schema.StringValue("seller")},
	}}
	return &schemachain.Step{
		Revision: RevInitial,
		Up: []schema.Operation{
			products,
			stock,
			movements,
			customers,
			users,
		},
		Down: []schema.Operation{
			schema.DropTable(users),
			schema.DropTable(customers),
			schema.DropTable(movements),
			schema.DropTable(stock),
			schema.DropTable(products),
		},
	}
}
