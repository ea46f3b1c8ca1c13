package models

// All lists every persisted model in dependency order; used by sqlite
// bootstrap and tests.
func All() []any {
	return []any{
		&Category{},
		&MenuItem{},
		&InventoryCategory{},
		&PortionOption{},
		&InventoryItem{},
		&ItemPortionPrice{},
		&StockEntry{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
