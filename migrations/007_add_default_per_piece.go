package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

// addDefaultPerPiece stores how many units a product's piece holds, for products sold by weight
// or length.
func addDefaultPerPiece() *schemachain.Step {
	perPiece := nullable("default_per_piece", quantity())
	return &schemachain.Step{
		Revision: RevAddDefaultPerPiece,
		Parent:   RevAddUserLanguage,
		Up:       []schema.Operation{addColumn("products", perPiece)},
		Down:     []schema.Operation{dropColumn("products", perPiece)},
	}
}
