package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

// addTelegramID links customers to their Telegram account. Telegram ids do not fit in 32 bits.
func addTelegramID() *schemachain.Step {
	telegramID := nullable("telegram_id", schema.BigInteger())
	return &schemachain.Step{
		Revision: RevAddTelegramID,
		Parent:   RevAddProductUSDColor,
		Up:       []schema.Operation{addColumn("customers", telegramID)},
		Down:     []schema.Operation{dropColumn("customers", telegramID)},
	}
}
