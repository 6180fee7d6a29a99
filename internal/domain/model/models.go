package model

// AutoMigrateの対象
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
