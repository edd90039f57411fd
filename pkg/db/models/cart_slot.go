package models

import "time"

// CartSlot is a string-keyed persistence slot holding a serialized cart.
type CartSlot struct {
	Key       string    `gorm:"column:slot_key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// All lists every model for sqlite auto migration.
func All() []any {
	return []any{&Product{}, &Order{}, &WishlistItem{}, &CartSlot{}}
}
