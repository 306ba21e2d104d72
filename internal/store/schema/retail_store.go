package schema

import "time"

// RetailStore represents the retail_stores table - the stable identities that
// observations may reference by id. A row is created the first time an
// observation references a store id; free-text store names in observations are
// matched lazily at aggregation time, not at submission time.
type RetailStore struct {
	ID      string  `gorm:"column:id;primaryKey;type:text"`
	Name    string  `gorm:"column:name;not null;type:text;index"`
	Website *string `gorm:"column:website;type:text"`
	// Country and City scope the store; the same chain in two cities is two rows
	Country   string    `gorm:"column:country;not null;type:text"`
	City      *string   `gorm:"column:city;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the RetailStore model
func (RetailStore) TableName() string {
	return "retail_stores"
}
