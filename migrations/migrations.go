// Package migrations holds the schema history of the stock database: stock levels and movements,
// products, customers and users.
//
// Steps are constructed explicitly; nothing is registered at init time.
package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

// Revisions, root first.
const (
	RevInitial            = "001_initial"
	RevAddUSDFields       = "002_add_usd_fields"
	RevAddProductUSDColor = "003_add_product_usd_color"
	RevAddTelegramID      = "004_add_telegram_id"
	RevAddEditTracking    = "005_add_edit_tracking"
	RevAddUserLanguage    = "006_add_user_language"
	RevAddDefaultPerPiece = "007_add_default_per_piece"
)

// Steps returns the steps of the chain, root first. Each call returns fresh values, so callers
// may modify the result.
func Steps() []*schemachain.Step {
	return []*schemachain.Step{
		initial(),
		addUSDFields(),
		addProductUSDColor(),
		addTelegramID(),
		addEditTracking(),
		addUserLanguage(),
		addDefaultPerPiece(),
	}
}

// Chain returns the validated chain built from [Steps].
func Chain() (*schemachain.Chain, error) {
	return schemachain.NewChain(Steps()...)
}

func money() schema.Type    { return schema.Numeric(18, 2) }
func usd() schema.Type      { return schema.Numeric(18, 4) }
func quantity() schema.Type { return schema.Numeric(18, 3) }

func id() schema.Column {
	return schema.Column{Name: "id", Type: schema.BigInteger(), PrimaryKey: true}
}

func nullable(name string, t schema.Type) schema.Column {
	return schema.Column{Name: name, Type: t, Nullable: true}
}

func addColumn(table string, c schema.Column) schema.AddColumn {
	return schema.AddColumn{Table: table, Column: c}
}

func dropColumn(table string, c schema.Column) schema.DropColumn {
	return schema.DropColumn{Table: table, Column: c}
}
