package models

// Product is a catalogue entry. Name and description are indexed for
// lookups but not unique.
type Product struct {
	ID          uint   `gorm:"primaryKey"                json:"id"`
	Name        string `gorm:"size:255;not null;index"   json:"name"`
	Description string `gorm:"size:255;not null;index"   json:"description"`
}

func (Product) TableName() string { return "products" }

// GetID identifies the product in change events.
func (p Product) GetID() uint { return p.ID }
