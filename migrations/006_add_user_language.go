package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

func addUserLanguage() *schemachain.Step {
	language := schema.Column{Name: "language", Type: schema.String(8), Default: schema.StringValue("uz")}
	return &schemachain.Step{
		Revision: RevAddUserLanguage,
		Parent:   RevAddEditTracking,
		Up:       []schema.Operation{addColumn("users", language)},
		Down:     []schema.Operation{dropColumn("users", language)},
	}
}
