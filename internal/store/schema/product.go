package schema

import "time"

// Product represents the products table. A submission without a product id
// names the product instead, and the row is created in the same transaction
// as its first observation.
type Product struct {
	ID        string    `gorm:"column:id;primaryKey;type:text"`
	Name      string    `gorm:"column:name;not null;type:text;index"`
	Brand     *string   `gorm:"column:brand;type:text"`
	CreatedBy string    `gorm:"column:created_by;not null;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
